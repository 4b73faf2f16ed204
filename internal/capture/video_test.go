// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_capture

import (
	"context"
	"testing"
	"time"

	internal_media "github.com/hiresightai/capture/internal/media"
	internal_upload "github.com/hiresightai/capture/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVideoUnit(t *testing.T, device *fakeDevice, uploader *fakeVideoUploader, opts ...VideoOption) (*VideoUnit, *fakeIndicator) {
	t.Helper()
	ind := &fakeIndicator{}
	u := NewVideoUnit(newTestLogger(t), device, uploader, ind, "sess-video", opts...)
	return u, ind
}

func TestVideoUnit_DeviceFailureKeepsIdle(t *testing.T) {
	device := &fakeDevice{err: internal_media.ErrPermissionDenied}
	uploader := &fakeVideoUploader{}
	u, ind := newTestVideoUnit(t, device, uploader)

	_, err := u.Start(context.Background())
	require.ErrorIs(t, err, internal_media.ErrPermissionDenied)

	assert.Equal(t, StateIdle, u.State())
	assert.False(t, u.IsRecording())
	shown, _ := ind.counts()
	assert.Zero(t, shown, "indicator must not appear on failed start")
	_, ok := u.Anchor()
	assert.False(t, ok, "no partial state on failed start")
}

func TestVideoUnit_CodecFallbackIsSilent(t *testing.T) {
	stream := newFakeStream()
	stream.supported = map[string]bool{internal_media.MimeWebMVP8Opus: true}
	device := &fakeDevice{stream: stream}
	u, _ := newTestVideoUnit(t, device, &fakeVideoUploader{})

	_, err := u.Start(context.Background())
	require.NoError(t, err)
	defer u.Stop(context.Background())

	assert.Equal(t, internal_media.MimeWebMVP8Opus, u.mimeType)
}

func TestVideoUnit_ChunkCadence(t *testing.T) {
	// 25 chunks with a threshold of 10: incremental uploads after chunks 10
	// and 20, then one final upload carrying 21-25.
	uploader := &fakeVideoUploader{}
	u, _ := newTestVideoUnit(t, &fakeDevice{stream: newFakeStream()}, uploader)

	var all []byte
	for i := 1; i <= 25; i++ {
		chunk := patternChunk(i, 200)
		all = append(all, chunk...)
		u.batch.Append(chunk)
		u.maybeFlush()
	}
	u.flush(true)

	require.Equal(t, 3, uploader.callCount())

	first, second, final := uploader.call(0), uploader.call(1), uploader.call(2)
	assert.Equal(t, 10, first.ChunkIndex)
	assert.Equal(t, 20, second.ChunkIndex)
	assert.Equal(t, 25, final.ChunkIndex)
	assert.False(t, first.IsFinal)
	assert.False(t, second.IsFinal)
	assert.True(t, final.IsFinal)

	// Strictly increasing sequence values.
	assert.Less(t, first.ChunkIndex, second.ChunkIndex)
	assert.Less(t, second.ChunkIndex, final.ChunkIndex)

	// Concatenation of uploaded batches equals the full recorded stream.
	var uploaded []byte
	uploaded = append(uploaded, first.Payload...)
	uploaded = append(uploaded, second.Payload...)
	uploaded = append(uploaded, final.Payload...)
	assert.Equal(t, all, uploaded)
}

func TestVideoUnit_EmptyFinalAdvancesSequence(t *testing.T) {
	uploader := &fakeVideoUploader{}
	u, _ := newTestVideoUnit(t, &fakeDevice{stream: newFakeStream()}, uploader)

	for i := 1; i <= 10; i++ {
		u.batch.Append(patternChunk(i, 16))
	}
	u.maybeFlush()
	require.Equal(t, 1, uploader.callCount())

	// Everything already uploaded; the final marker carries no payload but
	// still needs its own strictly greater sequence value.
	u.flush(true)
	require.Equal(t, 2, uploader.callCount())

	final := uploader.call(1)
	assert.True(t, final.IsFinal)
	assert.Empty(t, final.Payload)
	assert.Greater(t, final.ChunkIndex, uploader.call(0).ChunkIndex)
}

func TestVideoUnit_StopDuringStartAbortsStart(t *testing.T) {
	block := make(chan struct{})
	stream := newFakeStream()
	device := &fakeDevice{stream: stream, block: block, entered: make(chan struct{})}
	uploader := &fakeVideoUploader{}
	u, ind := newTestVideoUnit(t, device, uploader,
		WithVideoHandoffBound(2*time.Second))

	startErr := make(chan error, 1)
	go func() {
		_, err := u.Start(context.Background())
		startErr <- err
	}()
	<-device.entered

	// Stop arrives while the permission prompt is still pending.
	res := u.Stop(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, StateResolved, u.State())
	assert.Zero(t, uploader.callCount(), "nothing recorded, nothing to upload")

	close(block)
	require.Error(t, <-startErr)
	assert.False(t, u.IsRecording(), "resolved stop must not be clobbered by the late start")
	assert.True(t, stream.isClosed(), "aborted start must release the acquired stream")
	shown, _ := ind.counts()
	assert.Zero(t, shown)
}

func TestVideoUnit_StopWithoutStartSkipsEmptyUpload(t *testing.T) {
	uploader := &fakeVideoUploader{}
	u, _ := newTestVideoUnit(t, &fakeDevice{stream: newFakeStream()}, uploader,
		WithVideoHandoffBound(2*time.Second))

	res := u.Stop(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, StateResolved, u.State())
	assert.Zero(t, uploader.callCount(), "no residual chunks, no final marker")
}

func TestVideoUnit_FailedBatchRidesFinalFlush(t *testing.T) {
	uploader := &fakeVideoUploader{
		results: []internal_upload.Result{
			{Err: assert.AnError},       // incremental fails
			{Success: true, Path: "ok"}, // final succeeds
		},
	}
	u, _ := newTestVideoUnit(t, &fakeDevice{stream: newFakeStream()}, uploader)

	var all []byte
	for i := 1; i <= 10; i++ {
		chunk := patternChunk(i, 32)
		all = append(all, chunk...)
		u.batch.Append(chunk)
		u.maybeFlush()
	}
	require.Equal(t, 1, uploader.callCount(), "threshold reached, incremental attempted")
	assert.Equal(t, 10, u.batch.Len(), "failed batch must stay queued")

	u.flush(true)
	require.Equal(t, 2, uploader.callCount())
	assert.Equal(t, all, uploader.call(1).Payload, "final flush carries the failed chunks")
	assert.Equal(t, 0, u.batch.Len())
}

func TestVideoUnit_StartStopLifecycle(t *testing.T) {
	stream := newFakeStream()
	device := &fakeDevice{stream: stream}
	uploader := &fakeVideoUploader{}
	u, ind := newTestVideoUnit(t, device, uploader,
		WithVideoChunkInterval(10*time.Millisecond),
		WithVideoHandoffBound(2*time.Second),
	)

	anchor, err := u.Start(context.Background())
	require.NoError(t, err)
	assert.True(t, u.IsRecording())
	assert.Greater(t, anchor.Seconds, 0.0)
	assert.Equal(t, ProvenanceSelfMeasured, anchor.Provenance)

	c := device.lastConstraints()
	assert.True(t, c.Audio)
	assert.True(t, c.Video)

	stream.push([]byte("frame-1"))
	stream.push([]byte("frame-2"))
	time.Sleep(30 * time.Millisecond) // let at least one timeslice elapse

	res := u.Stop(context.Background())
	assert.True(t, res.Success)
	assert.Equal(t, "recordings/video.webm", res.Path)
	assert.False(t, u.IsRecording())
	assert.Equal(t, StateResolved, u.State())
	assert.True(t, stream.isClosed(), "device tracks released on stop")

	shown, hidden := ind.counts()
	assert.Equal(t, 1, shown)
	assert.Equal(t, 1, hidden)

	// Everything pushed must have been uploaded, in order.
	var uploaded []byte
	for i := 0; i < uploader.callCount(); i++ {
		uploaded = append(uploaded, uploader.call(i).Payload...)
	}
	assert.Equal(t, []byte("frame-1frame-2"), uploaded)
	assert.True(t, uploader.call(uploader.callCount()-1).IsFinal)
}

func TestVideoUnit_DoubleStopReturnsCachedResult(t *testing.T) {
	stream := newFakeStream()
	uploader := &fakeVideoUploader{}
	u, _ := newTestVideoUnit(t, &fakeDevice{stream: stream}, uploader,
		WithVideoHandoffBound(2*time.Second))

	_, err := u.Start(context.Background())
	require.NoError(t, err)

	first := u.Stop(context.Background())
	finalUploads := uploader.callCount()

	second := u.Stop(context.Background())
	assert.Equal(t, first, second)
	assert.Equal(t, finalUploads, uploader.callCount(), "no second final upload")
}

func TestVideoUnit_TimeoutResolvesWithCachedPath(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	uploader := &fakeVideoUploader{block: block}
	stream := newFakeStream()
	u, _ := newTestVideoUnit(t, &fakeDevice{stream: stream}, uploader,
		WithVideoHandoffBound(50*time.Millisecond))

	_, err := u.Start(context.Background())
	require.NoError(t, err)

	// A prior incremental upload already produced a path.
	u.cachePath("recordings/partial.webm")

	start := time.Now()
	res := u.Stop(context.Background())

	assert.Less(t, time.Since(start), time.Second, "handoff must resolve within the bound")
	assert.True(t, res.Degraded)
	assert.True(t, res.Success)
	assert.Equal(t, "recordings/partial.webm", res.Path)
}

func TestVideoUnit_StopWithoutStartFlushesResiduals(t *testing.T) {
	uploader := &fakeVideoUploader{}
	u, _ := newTestVideoUnit(t, &fakeDevice{stream: newFakeStream()}, uploader,
		WithVideoHandoffBound(2*time.Second))

	// Residue from a previously failed final flush.
	u.batch.Append([]byte("leftover"))

	res := u.Stop(context.Background())
	assert.True(t, res.Success)

	require.Equal(t, 1, uploader.callCount())
	req := uploader.call(0)
	assert.True(t, req.IsFinal)
	assert.Equal(t, []byte("leftover"), req.Payload)
}

func TestVideoUnit_FinalAnomalyReportedDistinctly(t *testing.T) {
	uploader := &fakeVideoUploader{
		results: []internal_upload.Result{{Anomaly: true}},
	}
	stream := newFakeStream()
	u, _ := newTestVideoUnit(t, &fakeDevice{stream: stream}, uploader,
		WithVideoHandoffBound(2*time.Second))

	_, err := u.Start(context.Background())
	require.NoError(t, err)

	res := u.Stop(context.Background())
	assert.False(t, res.Success)
	assert.True(t, res.Anomaly)
	assert.NoError(t, res.Err, "anomaly is not a transport failure")
}

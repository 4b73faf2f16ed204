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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_VideoAnchorBecomesAudioHint(t *testing.T) {
	logger := newTestLogger(t)
	videoUploader := &fakeVideoUploader{}
	audioUploader := &fakeAudioUploader{}

	video := NewVideoUnit(logger, &fakeDevice{stream: newFakeStream()}, videoUploader,
		&fakeIndicator{}, "sess-1",
		WithVideoClock(fixedClock(time.Unix(100, 0))),
		WithVideoHandoffBound(2*time.Second))
	audio := NewAudioUnit(logger, &fakeDevice{stream: newFakeStream()}, audioUploader,
		newTestBoard(t), "sess-1",
		WithAudioClock(fixedClock(time.Unix(100, 300_000_000))),
		WithAudioHandoffBound(2*time.Second))

	session := NewSession(logger, "sess-1", video, audio)
	require.NoError(t, session.Start(context.Background()))

	videoAnchor, ok := video.Anchor()
	require.True(t, ok)
	audioAnchor, ok := audio.Anchor()
	require.True(t, ok)

	// Both tracks align to the video unit's origin.
	assert.InDelta(t, 100.0, videoAnchor.Seconds, 1e-9)
	assert.InDelta(t, 100.0, audioAnchor.Seconds, 1e-9)
	assert.Equal(t, ProvenanceBorrowed, audioAnchor.Provenance)

	result := session.Stop(context.Background())
	assert.True(t, result.Video.Success)
	assert.True(t, result.Audio.Success)

	req := audioUploader.call(0)
	assert.InDelta(t, 100.0, req.AudioStartTimestamp, 1e-9)
	require.NotNil(t, req.VideoStartTimestamp)
	assert.InDelta(t, 100.0, *req.VideoStartTimestamp, 1e-9)
}

func TestSession_VideoFailureDegradesToAudioOnly(t *testing.T) {
	logger := newTestLogger(t)
	audioUploader := &fakeAudioUploader{}

	video := NewVideoUnit(logger, &fakeDevice{err: internal_media.ErrPermissionDenied},
		&fakeVideoUploader{}, &fakeIndicator{}, "sess-2")
	audio := NewAudioUnit(logger, &fakeDevice{stream: newFakeStream()}, audioUploader,
		newTestBoard(t), "sess-2",
		WithAudioHandoffBound(2*time.Second))

	session := NewSession(logger, "sess-2", video, audio)
	require.NoError(t, session.Start(context.Background()),
		"a missing video track must not abort the interview flow")

	assert.Equal(t, StateIdle, session.VideoState())
	assert.Equal(t, StateRecording, session.AudioState())

	result := session.Stop(context.Background())
	assert.True(t, result.Audio.Success)

	req := audioUploader.call(0)
	assert.Nil(t, req.VideoStartTimestamp, "no video anchor without a video start")
}

func TestSession_BothUnitsFailingIsAnError(t *testing.T) {
	logger := newTestLogger(t)
	video := NewVideoUnit(logger, &fakeDevice{err: internal_media.ErrPermissionDenied},
		&fakeVideoUploader{}, &fakeIndicator{}, "sess-3")
	audio := NewAudioUnit(logger, &fakeDevice{err: internal_media.ErrNoDevice},
		&fakeAudioUploader{}, newTestBoard(t), "sess-3")

	session := NewSession(logger, "sess-3", video, audio)
	assert.Error(t, session.Start(context.Background()))
}

func TestManager_StartTracksSession(t *testing.T) {
	logger := newTestLogger(t)
	manager := NewManager(logger,
		internal_media.NewSyntheticDevice(internal_media.WithFrameInterval(2*time.Millisecond)),
		&fakeVideoUploader{}, &fakeAudioUploader{},
		&fakeIndicator{}, newTestBoard(t))

	session, err := manager.Start(context.Background(), "sess-m1")
	require.NoError(t, err)
	require.NotNil(t, session)

	got, ok := manager.Get("sess-m1")
	require.True(t, ok)
	assert.Same(t, session, got)

	// Duplicate start refused.
	_, err = manager.Start(context.Background(), "sess-m1")
	assert.Error(t, err)

	result, err := manager.Stop(context.Background(), "sess-m1")
	require.NoError(t, err)
	assert.True(t, result.Video.Success)
	assert.True(t, result.Audio.Success)
}

func TestManager_AppliesUnitOptions(t *testing.T) {
	manager := NewManager(newTestLogger(t),
		internal_media.NewSyntheticDevice(internal_media.WithFrameInterval(2*time.Millisecond)),
		&fakeVideoUploader{}, &fakeAudioUploader{},
		&fakeIndicator{}, newTestBoard(t),
		WithVideoOptions(
			WithVideoChunkInterval(5*time.Millisecond),
			WithVideoBatchThreshold(3),
			WithVideoHandoffBound(time.Second),
		),
		WithAudioOptions(
			WithAudioChunkInterval(7*time.Millisecond),
			WithAudioHandoffBound(time.Second),
		),
	)

	session, err := manager.Start(context.Background(), "sess-opts")
	require.NoError(t, err)
	defer manager.Stop(context.Background(), "sess-opts")

	assert.Equal(t, 5*time.Millisecond, session.video.chunkInterval)
	assert.Equal(t, 3, session.video.batchThreshold)
	assert.Equal(t, time.Second, session.video.handoffBound)
	assert.Equal(t, 7*time.Millisecond, session.audio.chunkInterval)
	assert.Equal(t, time.Second, session.audio.handoffBound)
}

func TestManager_StopUnknownSession(t *testing.T) {
	manager := NewManager(newTestLogger(t),
		internal_media.NewSyntheticDevice(),
		&fakeVideoUploader{}, &fakeAudioUploader{},
		&fakeIndicator{}, newTestBoard(t))

	_, err := manager.Stop(context.Background(), "missing")
	assert.Error(t, err)
}

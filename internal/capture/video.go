// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_capture

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	internal_indicator "github.com/hiresightai/capture/internal/indicator"
	internal_media "github.com/hiresightai/capture/internal/media"
	internal_upload "github.com/hiresightai/capture/internal/upload"
	"github.com/hiresightai/capture/pkg/commons"
)

// VideoUnit records the composite camera+microphone stream. It owns its
// stream and recorder loop exclusively; the only state it shares with the
// audio unit is the start anchor it exposes after a successful start.
type VideoUnit struct {
	mu sync.Mutex

	logger    commons.Logger
	device    internal_media.Device
	uploader  VideoUploader
	indicator internal_indicator.Indicator

	sessionKey string

	chunkInterval  time.Duration
	batchThreshold int
	handoffBound   time.Duration
	// clock is injectable for testing; defaults to time.Now.
	clock func() time.Time

	state    State
	stream   internal_media.Stream
	mimeType string
	anchor   *Anchor
	batch    *Batch
	handoff  *Handoff
	// cached is the last server-assigned path from any acknowledged upload,
	// used by the degraded timeout path.
	cached string

	stopCh   chan struct{}
	loopDone chan struct{}
}

// VideoOption configures a VideoUnit.
type VideoOption func(*VideoUnit)

func WithVideoChunkInterval(d time.Duration) VideoOption {
	return func(u *VideoUnit) { u.chunkInterval = d }
}

func WithVideoBatchThreshold(n int) VideoOption {
	return func(u *VideoUnit) { u.batchThreshold = n }
}

func WithVideoHandoffBound(d time.Duration) VideoOption {
	return func(u *VideoUnit) { u.handoffBound = d }
}

func WithVideoClock(clock func() time.Time) VideoOption {
	return func(u *VideoUnit) { u.clock = clock }
}

func NewVideoUnit(
	logger commons.Logger,
	device internal_media.Device,
	uploader VideoUploader,
	indicator internal_indicator.Indicator,
	sessionKey string,
	opts ...VideoOption,
) *VideoUnit {
	u := &VideoUnit{
		logger:         logger,
		device:         device,
		uploader:       uploader,
		indicator:      indicator,
		sessionKey:     sessionKey,
		chunkInterval:  DefaultVideoChunkInterval,
		batchThreshold: DefaultVideoBatchThreshold,
		handoffBound:   DefaultHandoffBound,
		clock:          time.Now,
		state:          StateIdle,
		batch:          NewBatch(),
		handoff:        NewHandoff(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Start acquires the combined camera+microphone stream and begins chunked
// recording. The unit's start anchor is "now" at success and is exposed to
// the audio unit as an optional hint. Device failure is reported here, and
// the unit stays idle with no partial state.
func (u *VideoUnit) Start(ctx context.Context) (Anchor, error) {
	u.mu.Lock()
	if u.state != StateIdle {
		state := u.state
		u.mu.Unlock()
		return Anchor{}, fmt.Errorf("video unit: cannot start from state %q", state)
	}
	u.state = StateStarting
	u.mu.Unlock()

	stream, err := u.device.Acquire(ctx, internal_media.Constraints{Audio: true, Video: true})
	if err != nil {
		u.mu.Lock()
		u.state = StateIdle
		u.mu.Unlock()
		return Anchor{}, fmt.Errorf("video unit: device acquisition: %w", err)
	}

	// Preferred codec profile with silent fallback, never surfaced as an
	// error.
	mime := internal_media.MimeWebMVP9Opus
	if !stream.Supports(mime) {
		mime = internal_media.MimeWebMVP8Opus
	}

	anchor := Anchor{Seconds: epochSeconds(u.clock()), Provenance: ProvenanceSelfMeasured}

	u.mu.Lock()
	if u.state != StateStarting {
		// A stop arrived while device permission was pending and already
		// resolved the handoff; starting now would clobber it.
		state := u.state
		u.mu.Unlock()
		_ = stream.Close()
		return Anchor{}, fmt.Errorf("video unit: start aborted by stop, state %q", state)
	}
	u.stream = stream
	u.mimeType = mime
	u.anchor = &anchor
	u.stopCh = make(chan struct{})
	u.loopDone = make(chan struct{})
	u.state = StateRecording
	u.mu.Unlock()

	u.indicator.Show(u.sessionKey)
	go u.runChunkLoop(stream, u.stopCh, u.loopDone)

	u.logger.Infof("video recording started: session=%s mime=%s anchor=%.6f",
		u.sessionKey, mime, anchor.Seconds)
	return anchor, nil
}

// IsRecording is true strictly between a successful start and the stop
// call. Flushing is asynchronous and does not count as recording.
func (u *VideoUnit) IsRecording() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state == StateRecording
}

// State returns the unit's lifecycle state.
func (u *VideoUnit) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Anchor returns the unit's start anchor once recording has begun.
func (u *VideoUnit) Anchor() (Anchor, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.anchor == nil {
		return Anchor{}, false
	}
	return *u.anchor, true
}

// runChunkLoop accumulates frames and cuts a chunk every timeslice. When
// the batch reaches the threshold an incremental upload fires from this
// goroutine, so uploads are serialized per unit.
func (u *VideoUnit) runChunkLoop(stream internal_media.Stream, stopCh, loopDone chan struct{}) {
	defer close(loopDone)

	ticker := time.NewTicker(u.chunkInterval)
	defer ticker.Stop()

	var current bytes.Buffer
	for {
		select {
		case frame, ok := <-stream.Frames():
			if !ok {
				u.cutChunk(&current)
				return
			}
			current.Write(frame)
		case <-ticker.C:
			u.cutChunk(&current)
			u.maybeFlush()
		case <-stopCh:
			// Frames already delivered must not be lost to the shutdown race.
			drainFrames(stream, func(frame []byte) { current.Write(frame) })
			u.cutChunk(&current)
			return
		}
	}
}

// drainFrames consumes whatever the stream already delivered, without
// blocking for new frames.
func drainFrames(stream internal_media.Stream, write func([]byte)) {
	for {
		select {
		case frame, ok := <-stream.Frames():
			if !ok {
				return
			}
			write(frame)
		default:
			return
		}
	}
}

// cutChunk closes the accumulating chunk and queues it. Zero-size chunks
// are never queued.
func (u *VideoUnit) cutChunk(buf *bytes.Buffer) {
	if buf.Len() == 0 {
		return
	}
	u.batch.Append(buf.Bytes())
	buf.Reset()
}

func (u *VideoUnit) maybeFlush() {
	if u.batch.Len() < u.batchThreshold {
		return
	}
	u.flush(false)
}

// flush uploads the queued batch as one blob. The batch clears only on a
// server acknowledgment; a failed batch stays queued so its chunks ride
// the implicit final flush. In-flight uploads are never cancelled by stop,
// hence the background context with the client's own timeout.
func (u *VideoUnit) flush(final bool) internal_upload.Result {
	index := u.batch.Emitted()
	if final && u.batch.Len() == 0 {
		// An empty final marker still needs its own sequence value; reusing
		// the last data-carrying ordinal would break strict per-unit ordering.
		index++
	}
	res := u.uploader.UploadVideoChunk(context.Background(), internal_upload.VideoChunkRequest{
		SessionKey: u.sessionKey,
		Payload:    u.batch.Concat(),
		ChunkIndex: index,
		IsFinal:    final,
	})
	if res.Err != nil {
		u.logger.Warnf("video batch upload failed: session=%s queued=%d final=%v: %v",
			u.sessionKey, u.batch.Len(), final, res.Err)
		return res
	}
	if res.Path != "" {
		u.cachePath(res.Path)
	}
	// Acknowledged (including the missing-path anomaly): the server has the
	// bytes, so the batch clears.
	u.batch.Clear()
	return res
}

// Stop halts the recorder, releases device tracks, removes the indicator
// and performs the final is-final flush of whatever remains in the batch,
// possibly empty, and possibly chunks left over from a session that never
// started cleanly. It resolves to exactly one Result within the handoff
// bound; a second call returns the cached result without re-uploading.
func (u *VideoUnit) Stop(ctx context.Context) Result {
	u.mu.Lock()
	switch u.state {
	case StateResolved:
		u.mu.Unlock()
		res, _ := u.handoff.Result()
		return res
	case StateStopping, StateFlushing:
		// Another stop is already driving the handoff.
		u.mu.Unlock()
		return u.handoff.Await(u.handoffBound, u.degradedResult)
	}
	wasRecording := u.state == StateRecording
	u.state = StateStopping
	stream := u.stream
	stopCh := u.stopCh
	loopDone := u.loopDone
	u.mu.Unlock()

	if wasRecording {
		close(stopCh)
		<-loopDone
		_ = stream.Close()
	}
	u.indicator.Hide()

	u.mu.Lock()
	u.state = StateFlushing
	u.mu.Unlock()

	if !wasRecording && u.batch.Len() == 0 {
		// Never recorded and nothing queued: resolve without posting an
		// empty final marker the server would journal as a zero-byte upload.
		path := u.cachedPath()
		u.handoff.Resolve(Result{Success: path != "", Path: path})
	} else {
		go func() {
			res := u.flush(true)
			u.handoff.Resolve(u.resultFromUpload(res))
		}()
	}

	out := u.handoff.Await(u.handoffBound, u.degradedResult)

	u.mu.Lock()
	u.state = StateResolved
	u.mu.Unlock()

	u.logger.Infof("video recording stopped: session=%s success=%v path=%q degraded=%v",
		u.sessionKey, out.Success, out.Path, out.Degraded)
	return out
}

func (u *VideoUnit) resultFromUpload(res internal_upload.Result) Result {
	if res.Err != nil {
		return Result{Path: u.cachedPath(), Err: res.Err}
	}
	if res.Anomaly {
		return Result{Anomaly: true, Path: u.cachedPath()}
	}
	path := res.Path
	if path == "" {
		path = u.cachedPath()
	}
	return Result{Success: true, Path: path}
}

// degradedResult is the timeout fallback: whatever path any prior upload
// already produced, instead of an indefinite pending state.
func (u *VideoUnit) degradedResult() Result {
	path := u.cachedPath()
	return Result{Success: path != "", Path: path, Degraded: true}
}

func (u *VideoUnit) cachePath(path string) {
	u.mu.Lock()
	u.cached = path
	u.mu.Unlock()
}

func (u *VideoUnit) cachedPath() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cached
}

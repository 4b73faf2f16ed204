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

	internal_filter "github.com/hiresightai/capture/internal/audio/filter"
	internal_media "github.com/hiresightai/capture/internal/media"
	internal_notify "github.com/hiresightai/capture/internal/notify"
	internal_upload "github.com/hiresightai/capture/internal/upload"
	"github.com/hiresightai/capture/pkg/commons"
)

// AudioUnit records a separately filtered, higher-quality microphone-only
// track. Device-level echo cancellation, noise suppression and auto gain
// are the first line of defense; the filter graph is the second. Only the
// filtered signal is ever persisted.
type AudioUnit struct {
	mu sync.Mutex

	logger   commons.Logger
	device   internal_media.Device
	uploader AudioUploader
	board    *internal_notify.Board

	sessionKey string

	chunkInterval time.Duration
	handoffBound  time.Duration
	// clock is injectable for testing; defaults to time.Now.
	clock func() time.Time

	state  State
	stream internal_media.Stream
	filter *internal_filter.Graph

	// anchor is the authoritative transmitted anchor, set at most once.
	anchor *Anchor
	// measured is the unit's own start time, retained for diagnostics and
	// the no-hint fallback path.
	measured *Anchor
	// videoAnchor is the hint's timestamp, forwarded to the server so it
	// can reconcile or validate independently of the client's choice.
	videoAnchor *float64

	batch   *Batch
	handoff *Handoff
	cached  string

	stopCh   chan struct{}
	loopDone chan struct{}
}

// AudioOption configures an AudioUnit.
type AudioOption func(*AudioUnit)

func WithAudioChunkInterval(d time.Duration) AudioOption {
	return func(u *AudioUnit) { u.chunkInterval = d }
}

func WithAudioHandoffBound(d time.Duration) AudioOption {
	return func(u *AudioUnit) { u.handoffBound = d }
}

func WithAudioClock(clock func() time.Time) AudioOption {
	return func(u *AudioUnit) { u.clock = clock }
}

func NewAudioUnit(
	logger commons.Logger,
	device internal_media.Device,
	uploader AudioUploader,
	board *internal_notify.Board,
	sessionKey string,
	opts ...AudioOption,
) *AudioUnit {
	u := &AudioUnit{
		logger:        logger,
		device:        device,
		uploader:      uploader,
		board:         board,
		sessionKey:    sessionKey,
		chunkInterval: DefaultAudioChunkInterval,
		handoffBound:  DefaultHandoffBound,
		clock:         time.Now,
		state:         StateIdle,
		batch:         NewBatch(),
		handoff:       NewHandoff(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Start requests microphone-only access and begins chunked recording of the
// filtered signal. The two-stage anchor reconciliation happens here:
// device-permission acquisition takes unpredictably long, so the anchor
// cannot be fixed until the recorder loop is actually about to start.
func (u *AudioUnit) Start(ctx context.Context, hint *Anchor) (Anchor, error) {
	u.mu.Lock()
	if u.state != StateIdle {
		state := u.state
		u.mu.Unlock()
		return Anchor{}, fmt.Errorf("audio unit: cannot start from state %q", state)
	}
	u.state = StateStarting
	u.mu.Unlock()

	stream, err := u.device.Acquire(ctx, internal_media.Constraints{
		Audio:            true,
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
	})
	if err != nil {
		u.mu.Lock()
		u.state = StateIdle
		u.mu.Unlock()
		return Anchor{}, fmt.Errorf("audio unit: device acquisition: %w", err)
	}

	// Stage 1: compare the hint against our own "now" at the moment media
	// access resolved.
	now := epochSeconds(u.clock())
	provisional := Reconcile(hint, now)
	measured := Anchor{Seconds: now, Provenance: ProvenanceSelfMeasured}

	// Stage 2: re-anchor immediately before the recorder loop starts. The
	// video anchor wins whenever a hint exists.
	final := Finalize(hint, provisional)

	u.mu.Lock()
	if u.state != StateStarting {
		// A stop arrived while device permission was pending and already
		// resolved the handoff; starting now would clobber it.
		state := u.state
		u.mu.Unlock()
		_ = stream.Close()
		return Anchor{}, fmt.Errorf("audio unit: start aborted by stop, state %q", state)
	}
	u.stream = stream
	u.filter = internal_filter.NewGraph()
	u.anchor = &final
	u.measured = &measured
	if hint != nil {
		v := hint.Seconds
		u.videoAnchor = &v
	}
	u.stopCh = make(chan struct{})
	u.loopDone = make(chan struct{})
	u.state = StateRecording
	u.mu.Unlock()

	go u.runChunkLoop(stream, u.stopCh, u.loopDone)

	u.logger.Infof("audio recording started: session=%s anchor=%.6f (%s) measured=%.6f",
		u.sessionKey, final.Seconds, final.Provenance, measured.Seconds)
	return final, nil
}

// IsRecording is true strictly between a successful start and the stop call.
func (u *AudioUnit) IsRecording() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state == StateRecording
}

// State returns the unit's lifecycle state.
func (u *AudioUnit) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Anchor returns the authoritative transmitted anchor once recording has
// begun.
func (u *AudioUnit) Anchor() (Anchor, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.anchor == nil {
		return Anchor{}, false
	}
	return *u.anchor, true
}

// runChunkLoop routes every raw frame through the filter graph and cuts a
// chunk every timeslice. Audio uploads happen once, at stop; the loop only
// accumulates.
func (u *AudioUnit) runChunkLoop(stream internal_media.Stream, stopCh, loopDone chan struct{}) {
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
			current.Write(u.filter.Process(frame))
		case <-ticker.C:
			u.cutChunk(&current)
		case <-stopCh:
			drainFrames(stream, func(frame []byte) {
				current.Write(u.filter.Process(frame))
			})
			u.cutChunk(&current)
			return
		}
	}
}

func (u *AudioUnit) cutChunk(buf *bytes.Buffer) {
	if buf.Len() == 0 {
		return
	}
	u.batch.Append(buf.Bytes())
	buf.Reset()
}

// Stop halts the recorder, releases the microphone and uploads the full
// accumulated track with both anchor timestamps. Residual chunks from a
// session that never started cleanly are still flushed; stop never assumes
// a clean initial state. Resolves exactly once; a second call returns the
// cached result.
func (u *AudioUnit) Stop(ctx context.Context) Result {
	u.mu.Lock()
	switch u.state {
	case StateResolved:
		u.mu.Unlock()
		res, _ := u.handoff.Result()
		return res
	case StateStopping, StateFlushing:
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

	u.mu.Lock()
	u.state = StateFlushing
	u.mu.Unlock()

	if !wasRecording && u.batch.Len() == 0 {
		// Never recorded and nothing queued: resolve without posting an
		// empty track the server would journal as a zero-byte upload.
		path := u.cachedPath()
		u.handoff.Resolve(Result{Success: path != "", Path: path})
	} else {
		go func() {
			res := u.finalFlush()
			u.handoff.Resolve(u.resultFromUpload(res))
		}()
	}

	out := u.handoff.Await(u.handoffBound, u.degradedResult)

	u.mu.Lock()
	u.state = StateResolved
	u.mu.Unlock()

	u.logger.Infof("audio recording stopped: session=%s success=%v path=%q degraded=%v",
		u.sessionKey, out.Success, out.Path, out.Degraded)
	return out
}

// finalFlush uploads everything accumulated so far. The anchor timestamps
// ride along so the server can align the tracks itself.
func (u *AudioUnit) finalFlush() internal_upload.Result {
	u.mu.Lock()
	audioTS := epochSeconds(u.clock())
	if u.anchor != nil {
		audioTS = u.anchor.Seconds
	}
	videoTS := u.videoAnchor
	u.mu.Unlock()

	res := u.uploader.UploadAudio(context.Background(), internal_upload.AudioRequest{
		SessionKey:          u.sessionKey,
		Payload:             u.batch.Concat(),
		AudioStartTimestamp: audioTS,
		VideoStartTimestamp: videoTS,
	})
	if res.Err != nil {
		u.logger.Warnf("audio upload failed: session=%s queued=%d: %v",
			u.sessionKey, u.batch.Len(), res.Err)
		return res
	}
	u.batch.Clear()
	if res.Success && res.Path != "" {
		u.cachePath(res.Path)
		// Announce to any embedding orchestrator watching the board.
		u.board.Complete(u.sessionKey, res.Path)
	}
	return res
}

func (u *AudioUnit) resultFromUpload(res internal_upload.Result) Result {
	if res.Err != nil {
		return Result{Path: u.cachedPath(), Err: res.Err}
	}
	if res.Anomaly {
		return Result{Anomaly: true, Path: u.cachedPath()}
	}
	return Result{Success: true, Path: res.Path}
}

func (u *AudioUnit) degradedResult() Result {
	path := u.cachedPath()
	return Result{Success: path != "", Path: path, Degraded: true}
}

func (u *AudioUnit) cachePath(path string) {
	u.mu.Lock()
	u.cached = path
	u.mu.Unlock()
}

func (u *AudioUnit) cachedPath() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cached
}

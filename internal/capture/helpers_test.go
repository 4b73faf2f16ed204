// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_capture

import (
	"context"
	"sync"
	"testing"
	"time"

	internal_media "github.com/hiresightai/capture/internal/media"
	internal_notify "github.com/hiresightai/capture/internal/notify"
	internal_upload "github.com/hiresightai/capture/internal/upload"
	"github.com/hiresightai/capture/pkg/commons"
)

func newTestLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-capture"),
		commons.Level("debug"),
	)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

// fixedClock returns a clock frozen at t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// ============================================================================
// media fakes
// ============================================================================

type fakeStream struct {
	frames    chan []byte
	supported map[string]bool

	mu     sync.Mutex
	closed bool
	once   sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{frames: make(chan []byte, 64)}
}

func (s *fakeStream) Frames() <-chan []byte { return s.frames }

func (s *fakeStream) Supports(mime string) bool {
	if s.supported == nil {
		return true
	}
	return s.supported[mime]
}

func (s *fakeStream) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.frames)
	})
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeStream) push(frame []byte) { s.frames <- frame }

type fakeDevice struct {
	stream *fakeStream
	err    error

	// block, when set, holds Acquire until closed, simulating a pending
	// permission prompt; entered is closed once Acquire is in flight.
	block   chan struct{}
	entered chan struct{}

	mu          sync.Mutex
	constraints []internal_media.Constraints
	enterOnce   sync.Once
}

func (d *fakeDevice) Acquire(ctx context.Context, c internal_media.Constraints) (internal_media.Stream, error) {
	d.mu.Lock()
	d.constraints = append(d.constraints, c)
	d.mu.Unlock()
	if d.entered != nil {
		d.enterOnce.Do(func() { close(d.entered) })
	}
	if d.block != nil {
		<-d.block
	}
	if d.err != nil {
		return nil, d.err
	}
	return d.stream, nil
}

func (d *fakeDevice) lastConstraints() internal_media.Constraints {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.constraints[len(d.constraints)-1]
}

// ============================================================================
// uploader fakes
// ============================================================================

type fakeVideoUploader struct {
	mu      sync.Mutex
	calls   []internal_upload.VideoChunkRequest
	results []internal_upload.Result // consumed per call; last one repeats
	block   chan struct{}            // when set, calls wait until closed
}

func (f *fakeVideoUploader) UploadVideoChunk(ctx context.Context, req internal_upload.VideoChunkRequest) internal_upload.Result {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	// Keep our own copy of the payload; the unit may reuse buffers.
	cp := req
	cp.Payload = append([]byte(nil), req.Payload...)
	f.calls = append(f.calls, cp)

	if len(f.results) == 0 {
		return internal_upload.Result{Success: true, Path: "recordings/video.webm"}
	}
	res := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return res
}

func (f *fakeVideoUploader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeVideoUploader) call(i int) internal_upload.VideoChunkRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

type fakeAudioUploader struct {
	mu     sync.Mutex
	calls  []internal_upload.AudioRequest
	result internal_upload.Result
	block  chan struct{}
}

func (f *fakeAudioUploader) UploadAudio(ctx context.Context, req internal_upload.AudioRequest) internal_upload.Result {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := req
	cp.Payload = append([]byte(nil), req.Payload...)
	f.calls = append(f.calls, cp)

	if f.result == (internal_upload.Result{}) {
		return internal_upload.Result{Success: true, Path: "recordings/audio.webm"}
	}
	return f.result
}

func (f *fakeAudioUploader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAudioUploader) call(i int) internal_upload.AudioRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

// ============================================================================
// indicator fake
// ============================================================================

type fakeIndicator struct {
	mu     sync.Mutex
	shown  int
	hidden int
}

func (i *fakeIndicator) Show(string) {
	i.mu.Lock()
	i.shown++
	i.mu.Unlock()
}

func (i *fakeIndicator) Hide() {
	i.mu.Lock()
	i.hidden++
	i.mu.Unlock()
}

func (i *fakeIndicator) counts() (int, int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.shown, i.hidden
}

func newTestBoard(t *testing.T) *internal_notify.Board {
	t.Helper()
	return internal_notify.NewBoard(newTestLogger(t))
}

// patternChunk builds a chunk whose bytes identify its ordinal.
func patternChunk(ordinal, size int) []byte {
	chunk := make([]byte, size)
	for i := range chunk {
		chunk[i] = byte(ordinal)
	}
	return chunk
}

// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_media

import (
	"context"
	"errors"
)

// Codec profiles used by the capture units. The preferred video profile
// falls back silently when a stream does not support it.
const (
	MimeWebMVP9Opus = "video/webm;codecs=vp9,opus"
	MimeWebMVP8Opus = "video/webm;codecs=vp8,opus"
	MimeWebMOpus    = "audio/webm;codecs=opus"
)

// PCM format produced by audio streams.
const (
	AudioSampleRate     = 16000
	AudioChannels       = 1
	AudioBytesPerSample = 2 // LINEAR16
	AudioFrameDuration  = 20 // milliseconds
	// AudioFrameBytes is one 20ms PCM16 frame at 16kHz mono.
	AudioFrameBytes = AudioSampleRate / 1000 * AudioFrameDuration * AudioChannels * AudioBytesPerSample
)

var (
	// ErrPermissionDenied is returned when the user (or platform) refuses
	// access to a capture device.
	ErrPermissionDenied = errors.New("media: device permission denied")
	// ErrNoDevice is returned when no matching capture device exists.
	ErrNoDevice = errors.New("media: no capture device available")
)

// Constraints select which tracks to acquire and which device-level audio
// processing to enable. Echo cancellation, noise suppression and auto gain
// are the first line of defense; the filter graph is the second.
type Constraints struct {
	Audio bool
	Video bool

	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
}

// Stream is one acquired device stream. Frames are raw media payloads
// delivered at capture rate until the stream is closed; the channel is
// closed once no more frames will arrive.
type Stream interface {
	// Frames returns the frame delivery channel. Reading a closed channel
	// signals end of capture.
	Frames() <-chan []byte
	// Supports reports whether the stream can record the given MIME profile.
	Supports(mime string) bool
	// Close releases all device tracks. Safe to call more than once.
	Close() error
}

// Device acquires media streams. Acquisition is the Go rendition of the
// asynchronous permission prompt: it can take arbitrarily long and can fail
// with ErrPermissionDenied or ErrNoDevice, both reported synchronously to
// the caller.
type Device interface {
	Acquire(ctx context.Context, c Constraints) (Stream, error)
}

// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_media

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"time"
)

const (
	// syntheticVideoFrameBytes approximates one encoded camera frame.
	syntheticVideoFrameBytes = 4096
	defaultFrameInterval     = 20 * time.Millisecond
	frameChannelSize         = 256
)

// SyntheticDevice is a deterministic Device used by the agent in dev mode
// and by tests. Audio streams carry a PCM16 sine tone; video streams carry
// opaque pseudo-random payloads sized like encoded frames.
type SyntheticDevice struct {
	acquireErr    error
	supported     map[string]bool
	frameInterval time.Duration
	toneHz        float64
}

// SyntheticOption configures a SyntheticDevice.
type SyntheticOption func(*SyntheticDevice)

// WithAcquireError makes every Acquire call fail with err. Used to exercise
// the device-acquisition failure paths.
func WithAcquireError(err error) SyntheticOption {
	return func(d *SyntheticDevice) { d.acquireErr = err }
}

// WithSupportedMimeTypes restricts the codec profiles the acquired streams
// report as recordable.
func WithSupportedMimeTypes(mimes ...string) SyntheticOption {
	return func(d *SyntheticDevice) {
		d.supported = make(map[string]bool, len(mimes))
		for _, m := range mimes {
			d.supported[m] = true
		}
	}
}

// WithFrameInterval overrides the frame delivery cadence.
func WithFrameInterval(interval time.Duration) SyntheticOption {
	return func(d *SyntheticDevice) { d.frameInterval = interval }
}

// WithTone sets the audio tone frequency in Hz.
func WithTone(freqHz float64) SyntheticOption {
	return func(d *SyntheticDevice) { d.toneHz = freqHz }
}

func NewSyntheticDevice(opts ...SyntheticOption) *SyntheticDevice {
	d := &SyntheticDevice{
		supported: map[string]bool{
			MimeWebMVP9Opus: true,
			MimeWebMVP8Opus: true,
			MimeWebMOpus:    true,
		},
		frameInterval: defaultFrameInterval,
		toneHz:        440,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *SyntheticDevice) Acquire(ctx context.Context, c Constraints) (Stream, error) {
	if d.acquireErr != nil {
		return nil, d.acquireErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &syntheticStream{
		supported: d.supported,
		frames:    make(chan []byte, frameChannelSize),
		done:      make(chan struct{}),
	}
	go s.run(c, d.frameInterval, d.toneHz)
	return s, nil
}

type syntheticStream struct {
	supported map[string]bool
	frames    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (s *syntheticStream) Frames() <-chan []byte { return s.frames }

func (s *syntheticStream) Supports(mime string) bool { return s.supported[mime] }

func (s *syntheticStream) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// run produces frames until the stream is closed. The producer owns the
// frames channel and closes it on exit.
func (s *syntheticStream) run(c Constraints, interval time.Duration, toneHz float64) {
	defer close(s.frames)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var sampleIndex int
	var videoSeed uint32 = 2463534242

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			var frame []byte
			if c.Video {
				frame, videoSeed = videoFrame(videoSeed)
			} else {
				frame, sampleIndex = audioFrame(sampleIndex, toneHz)
			}
			select {
			case s.frames <- frame:
			default:
				// consumer stalled; drop rather than block capture
			}
		}
	}
}

// audioFrame renders one 20ms PCM16 frame of a sine tone.
func audioFrame(sampleIndex int, toneHz float64) ([]byte, int) {
	samples := AudioFrameBytes / AudioBytesPerSample
	frame := make([]byte, AudioFrameBytes)
	for i := 0; i < samples; i++ {
		v := math.Sin(2 * math.Pi * toneHz * float64(sampleIndex+i) / AudioSampleRate)
		binary.LittleEndian.PutUint16(frame[i*2:], uint16(int16(v*0.25*32767)))
	}
	return frame, sampleIndex + samples
}

// videoFrame renders one opaque pseudo-random payload (xorshift32).
func videoFrame(seed uint32) ([]byte, uint32) {
	frame := make([]byte, syntheticVideoFrameBytes)
	for i := 0; i+3 < len(frame); i += 4 {
		seed ^= seed << 13
		seed ^= seed >> 17
		seed ^= seed << 5
		binary.LittleEndian.PutUint32(frame[i:], seed)
	}
	return frame, seed
}

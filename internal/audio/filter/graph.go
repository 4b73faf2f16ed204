// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_filter

import (
	"encoding/binary"
	"math"

	internal_media "github.com/hiresightai/capture/internal/media"
)

// Filter chain parameters. Fixed constants, not per-session configuration.
const (
	// HighPassCutoffHz removes sub-80Hz rumble (HVAC, desk bumps).
	HighPassCutoffHz = 80
	// LowPassCutoffHz removes content above the voice-relevant range.
	LowPassCutoffHz = 12000

	// Compressor profile: fast attack, slow release, normalizes loudness
	// variance between soft and loud speakers.
	CompressorThresholdDB   = -24
	CompressorRatio         = 12
	CompressorAttackSeconds = 0.003
	CompressorReleaseSecs   = 0.25

	// MakeupGain is the fixed post-compression boost.
	MakeupGain = 1.4

	filterQ = 0.7071 // Butterworth
)

// biquad is a direct-form-I second-order IIR section.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// RBJ audio-EQ-cookbook coefficients.
func newHighPass(sampleRate, cutoffHz, q float64) *biquad {
	w := 2 * math.Pi * cutoffHz / sampleRate
	cosw, sinw := math.Cos(w), math.Sin(w)
	alpha := sinw / (2 * q)
	a0 := 1 + alpha
	return &biquad{
		b0: (1 + cosw) / 2 / a0,
		b1: -(1 + cosw) / a0,
		b2: (1 + cosw) / 2 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

func newLowPass(sampleRate, cutoffHz, q float64) *biquad {
	w := 2 * math.Pi * cutoffHz / sampleRate
	cosw, sinw := math.Cos(w), math.Sin(w)
	alpha := sinw / (2 * q)
	a0 := 1 + alpha
	return &biquad{
		b0: (1 - cosw) / 2 / a0,
		b1: (1 - cosw) / a0,
		b2: (1 - cosw) / 2 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

// compressor is a feed-forward dynamics compressor with an envelope
// follower. Gain reduction applies only to the portion above the threshold.
type compressor struct {
	threshold float64 // linear
	ratio     float64
	attack    float64 // per-sample smoothing coefficient
	release   float64
	envelope  float64
}

func newCompressor(sampleRate float64) *compressor {
	return &compressor{
		threshold: math.Pow(10, CompressorThresholdDB/20.0),
		ratio:     CompressorRatio,
		attack:    1 - math.Exp(-1/(CompressorAttackSeconds*sampleRate)),
		release:   1 - math.Exp(-1/(CompressorReleaseSecs*sampleRate)),
	}
}

func (c *compressor) process(x float64) float64 {
	level := math.Abs(x)
	if level > c.envelope {
		c.envelope += c.attack * (level - c.envelope)
	} else {
		c.envelope += c.release * (level - c.envelope)
	}
	if c.envelope <= c.threshold {
		return x
	}
	compressed := c.threshold + (c.envelope-c.threshold)/c.ratio
	return x * (compressed / c.envelope)
}

// Graph conditions the raw microphone signal before it is recorded. The
// chain order is fixed: high-pass → low-pass → compressor → makeup gain.
// Only the filtered output is ever persisted.
type Graph struct {
	highPass *biquad
	lowPass  *biquad
	comp     *compressor
	gain     float64
}

func NewGraph() *Graph {
	sr := float64(internal_media.AudioSampleRate)
	return &Graph{
		highPass: newHighPass(sr, HighPassCutoffHz, filterQ),
		lowPass:  newLowPass(sr, LowPassCutoffHz, filterQ),
		comp:     newCompressor(sr),
		gain:     MakeupGain,
	}
}

// Process conditions one little-endian PCM16 frame in place and returns it.
// Filter state carries across calls, so frames must be fed in order.
func (g *Graph) Process(pcm []byte) []byte {
	for i := 0; i+1 < len(pcm); i += 2 {
		s := float64(int16(binary.LittleEndian.Uint16(pcm[i:]))) / 32768.0
		s = g.highPass.process(s)
		s = g.lowPass.process(s)
		s = g.comp.process(s)
		s *= g.gain
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		binary.LittleEndian.PutUint16(pcm[i:], uint16(int16(s*32767)))
	}
	return pcm
}

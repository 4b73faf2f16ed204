// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_upload

// Endpoint paths relative to the upload base URL.
const (
	VideoChunkPath = "/api/uploads/video-chunk"
	AudioPath      = "/api/uploads/audio"
)

// Result is the outcome of one upload call. Exactly one of three shapes:
// success with a server-assigned path, success without a path (Anomaly,
// the server misbehaved rather than rejected), or failure with Err set.
// No automatic retry is performed at this layer; the capture unit's
// completion handoff decides how to proceed.
type Result struct {
	Success bool
	Path    string
	Anomaly bool
	Err     error
}

// VideoChunkRequest carries one batch of video chunks. Payload is the
// concatenation of queued chunks in append order; ChunkIndex is the
// monotonically increasing emitted-chunk ordinal so the server can
// reassemble order under out-of-order delivery.
type VideoChunkRequest struct {
	SessionKey string
	Payload    []byte
	ChunkIndex int
	IsFinal    bool
}

// AudioRequest carries the full filtered audio track plus both anchor
// timestamps so the server can perform its own reconciliation independent
// of the client's choice. VideoStartTimestamp is nil when the audio unit
// started without a hint.
type AudioRequest struct {
	SessionKey          string
	Payload             []byte
	AudioStartTimestamp float64
	VideoStartTimestamp *float64
}

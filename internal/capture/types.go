// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_capture

import (
	"context"
	"time"

	internal_upload "github.com/hiresightai/capture/internal/upload"
)

// Capture cadence and batching defaults.
const (
	// DefaultVideoChunkInterval is the video recorder timeslice. Video
	// chunks are fine-grained so incremental uploads stay small.
	DefaultVideoChunkInterval = time.Second

	// DefaultAudioChunkInterval is the audio recorder timeslice. Audio
	// chunks are coarser because audio data volume is much smaller.
	DefaultAudioChunkInterval = 10 * time.Second

	// DefaultVideoBatchThreshold is the queued-chunk count that triggers an
	// incremental (non-final) video upload.
	DefaultVideoBatchThreshold = 10

	// DefaultHandoffBound caps how long a stop call waits for the final
	// flush before resolving with the best cached result.
	DefaultHandoffBound = 10 * time.Second
)

// State is the per-unit lifecycle. starting falls back to idle on device
// error; resolved is terminal and idempotent.
type State string

const (
	StateIdle      State = "idle"
	StateStarting  State = "starting"
	StateRecording State = "recording"
	StateStopping  State = "stopping"
	StateFlushing  State = "flushing"
	StateResolved  State = "resolved"
)

// VideoUploader is the slice of the upload client the video unit needs.
type VideoUploader interface {
	UploadVideoChunk(ctx context.Context, req internal_upload.VideoChunkRequest) internal_upload.Result
}

// AudioUploader is the slice of the upload client the audio unit needs.
type AudioUploader interface {
	UploadAudio(ctx context.Context, req internal_upload.AudioRequest) internal_upload.Result
}

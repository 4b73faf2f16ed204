// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_capture

import (
	"context"
	"fmt"

	"github.com/hiresightai/capture/pkg/commons"
	"golang.org/x/sync/errgroup"
)

// Session correlates one interview attempt across both capture units. The
// video unit starts first (camera permission is the gating UX step) and its
// anchor is passed to the audio unit as the reconciliation hint, the only
// cross-unit shared state, fixed once and never mutated afterwards.
type Session struct {
	logger commons.Logger
	key    string
	video  *VideoUnit
	audio  *AudioUnit
}

// SessionResult aggregates the two independent completion handoffs.
type SessionResult struct {
	Video Result
	Audio Result
}

func NewSession(logger commons.Logger, key string, video *VideoUnit, audio *AudioUnit) *Session {
	return &Session{
		logger: logger,
		key:    key,
		video:  video,
		audio:  audio,
	}
}

// Key returns the session identifier.
func (s *Session) Key() string { return s.key }

// VideoState and AudioState expose the unit lifecycles for status surfaces.
func (s *Session) VideoState() State { return s.video.State() }
func (s *Session) AudioState() State { return s.audio.State() }

// Start launches video first, then audio with the video anchor as its hint.
// Loss of one track degrades gracefully: the session proceeds with the
// other and the missing recording surfaces as an absent reference at stop.
// An error is returned only when both units fail to start.
func (s *Session) Start(ctx context.Context) error {
	var hint *Anchor
	videoAnchor, videoErr := s.video.Start(ctx)
	if videoErr != nil {
		s.logger.Warnf("session %s: video capture unavailable, continuing audio-only: %v",
			s.key, videoErr)
	} else {
		hint = &videoAnchor
	}

	_, audioErr := s.audio.Start(ctx, hint)
	if audioErr != nil {
		s.logger.Warnf("session %s: audio capture unavailable: %v", s.key, audioErr)
	}

	if videoErr != nil && audioErr != nil {
		return fmt.Errorf("session %s: no capture unit could start: video: %v; audio: %w",
			s.key, videoErr, audioErr)
	}
	return nil
}

// Stop stops both units concurrently. Each unit's handoff resolves on its
// own bound, so Stop returns within the larger of the two.
func (s *Session) Stop(ctx context.Context) SessionResult {
	var out SessionResult
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Video = s.video.Stop(ctx)
		return nil
	})
	g.Go(func() error {
		out.Audio = s.audio.Stop(ctx)
		return nil
	})
	_ = g.Wait()
	return out
}

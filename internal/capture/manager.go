// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_capture

import (
	"context"
	"fmt"
	"sync"

	internal_indicator "github.com/hiresightai/capture/internal/indicator"
	internal_media "github.com/hiresightai/capture/internal/media"
	internal_notify "github.com/hiresightai/capture/internal/notify"
	"github.com/hiresightai/capture/pkg/commons"
)

// Manager creates and tracks capture sessions for the control API. Session
// keys are supplied externally (the interview backend mints them); the
// manager only guarantees one live session per key.
type Manager struct {
	mu sync.Mutex

	logger    commons.Logger
	device    internal_media.Device
	video     VideoUploader
	audio     AudioUploader
	indicator internal_indicator.Indicator
	board     *internal_notify.Board

	// videoOpts and audioOpts are applied to every unit the manager
	// constructs, carrying the daemon's tuning config.
	videoOpts []VideoOption
	audioOpts []AudioOption

	sessions map[string]*Session
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

func WithVideoOptions(opts ...VideoOption) ManagerOption {
	return func(m *Manager) { m.videoOpts = append(m.videoOpts, opts...) }
}

func WithAudioOptions(opts ...AudioOption) ManagerOption {
	return func(m *Manager) { m.audioOpts = append(m.audioOpts, opts...) }
}

func NewManager(
	logger commons.Logger,
	device internal_media.Device,
	video VideoUploader,
	audio AudioUploader,
	indicator internal_indicator.Indicator,
	board *internal_notify.Board,
	opts ...ManagerOption,
) *Manager {
	m := &Manager{
		logger:    logger,
		device:    device,
		video:     video,
		audio:     audio,
		indicator: indicator,
		board:     board,
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start creates the session for key if needed and starts capture. Starting
// an already-started session is an error; the units themselves refuse to
// restart.
func (m *Manager) Start(ctx context.Context, key string) (*Session, error) {
	m.mu.Lock()
	if _, exists := m.sessions[key]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("session %s already started", key)
	}
	session := NewSession(m.logger, key,
		NewVideoUnit(m.logger, m.device, m.video, m.indicator, key, m.videoOpts...),
		NewAudioUnit(m.logger, m.device, m.audio, m.board, key, m.audioOpts...),
	)
	m.sessions[key] = session
	m.mu.Unlock()

	if err := session.Start(ctx); err != nil {
		m.mu.Lock()
		delete(m.sessions, key)
		m.mu.Unlock()
		return nil, err
	}
	return session, nil
}

// Get returns the tracked session, if any.
func (m *Manager) Get(key string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[key]
	return session, ok
}

// Stop stops the session's units and returns the aggregated result. The
// session stays tracked so repeated stops return the cached handoffs.
func (m *Manager) Stop(ctx context.Context, key string) (SessionResult, error) {
	session, ok := m.Get(key)
	if !ok {
		return SessionResult{}, fmt.Errorf("session %s not found", key)
	}
	return session.Stop(ctx), nil
}

// Board exposes the completion board for embedding observers.
func (m *Manager) Board() *internal_notify.Board { return m.board }

// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_indicator

import (
	"sync"

	"github.com/hiresightai/capture/pkg/commons"
)

// Indicator is the user-visible recording marker. Shown on successful video
// start and removed on stop/cleanup. Purely observational: upload outcomes
// never affect it.
type Indicator interface {
	Show(sessionKey string)
	Hide()
}

type logIndicator struct {
	mu      sync.Mutex
	logger  commons.Logger
	visible bool
}

// NewLogIndicator returns an Indicator that surfaces visibility through the
// application log. Embedding UIs provide their own implementation.
func NewLogIndicator(logger commons.Logger) Indicator {
	return &logIndicator{logger: logger}
}

func (i *logIndicator) Show(sessionKey string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.visible {
		return
	}
	i.visible = true
	i.logger.Infow("recording indicator shown", "session", sessionKey)
}

func (i *logIndicator) Hide() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.visible {
		return
	}
	i.visible = false
	i.logger.Infow("recording indicator hidden")
}

// Noop is an Indicator that does nothing.
type Noop struct{}

func (Noop) Show(string) {}
func (Noop) Hide()       {}

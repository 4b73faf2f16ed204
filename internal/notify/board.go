// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_notify

import (
	"sync"

	"github.com/hiresightai/capture/pkg/commons"
)

const subscriberChannelSize = 8

// Completion announces a finished audio upload. Embedding orchestrators
// that are not otherwise coupled to the capture units subscribe to observe
// completion without polling.
type Completion struct {
	SessionKey string
	Path       string
}

// Board holds the last resolved audio path per session and fans completion
// events out to subscribers. It replaces window-scoped globals: the stored
// path is the shared-variable analogue, the subscription the custom-event
// analogue.
type Board struct {
	mu     sync.Mutex
	logger commons.Logger
	paths  map[string]string
	subs   []chan Completion
}

func NewBoard(logger commons.Logger) *Board {
	return &Board{
		logger: logger,
		paths:  make(map[string]string),
	}
}

// Subscribe returns a channel receiving future completions. Slow consumers
// lose events rather than blocking the capture path.
func (b *Board) Subscribe() <-chan Completion {
	ch := make(chan Completion, subscriberChannelSize)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// AudioPath returns the last announced path for a session.
func (b *Board) AudioPath(sessionKey string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	path, ok := b.paths[sessionKey]
	return path, ok
}

// Complete stores the path and notifies all subscribers without blocking.
func (b *Board) Complete(sessionKey, path string) {
	b.mu.Lock()
	b.paths[sessionKey] = path
	subs := make([]chan Completion, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	event := Completion{SessionKey: sessionKey, Path: path}
	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			b.logger.Warnw("completion subscriber full, dropping event",
				"session", sessionKey)
		}
	}
}

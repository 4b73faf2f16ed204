// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_capture

import (
	"sync"
	"time"
)

// Result is the single completion outcome of a capture unit's stop
// sequence. Failures are captured here and never raised as panics or
// rejections: callers branch on Success, so a partial recording failure
// cannot block the rest of the interview lifecycle.
type Result struct {
	Success bool
	Path    string
	// Anomaly marks a success response that carried no path: "server
	// misbehaved", distinct from "server rejected".
	Anomaly bool
	// Degraded marks a result produced by the bounded wait instead of the
	// final upload acknowledgment.
	Degraded bool
	Err      error
}

// Handoff is a single-resolution future created at stop time. The final
// flush resolves it; a bounded wait guards against a hung or lost network
// exchange. It resolves exactly once per recording session.
type Handoff struct {
	once sync.Once
	done chan struct{}
	res  Result
}

func NewHandoff() *Handoff {
	return &Handoff{done: make(chan struct{})}
}

// Resolve installs the result. Only the first call wins.
func (h *Handoff) Resolve(r Result) {
	h.once.Do(func() {
		h.res = r
		close(h.done)
	})
}

// Result returns the resolution, if any.
func (h *Handoff) Result() (Result, bool) {
	select {
	case <-h.done:
		return h.res, true
	default:
		return Result{}, false
	}
}

// Await blocks until the handoff resolves or the bound elapses. On timeout
// the fallback result is installed as the resolution, so later callers
// observe the same outcome instead of an indefinite pending state.
func (h *Handoff) Await(bound time.Duration, fallback func() Result) Result {
	timer := time.NewTimer(bound)
	defer timer.Stop()

	select {
	case <-h.done:
		return h.res
	case <-timer.C:
		h.Resolve(fallback())
		<-h.done
		return h.res
	}
}

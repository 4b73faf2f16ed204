// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_capture

import "sync"

// Batch accumulates not-yet-uploaded chunks in emission order. Append-only;
// chunks are never reordered. The queue is cleared only after a successful
// upload acknowledgment, so a failed batch rides along until the implicit
// final flush.
type Batch struct {
	mu      sync.Mutex
	chunks  [][]byte
	emitted int
}

func NewBatch() *Batch {
	return &Batch{}
}

// Append queues one chunk. Zero-size chunks are dropped. Each appended
// chunk advances the emitted ordinal, which is what uploads carry as their
// chunk sequence value.
func (b *Batch) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	buf := make([]byte, len(chunk))
	copy(buf, chunk)

	b.mu.Lock()
	b.chunks = append(b.chunks, buf)
	b.emitted++
	b.mu.Unlock()
}

// Len returns the number of queued (not yet uploaded) chunks.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks)
}

// Emitted returns the total number of chunks ever appended. Monotonically
// increasing for the lifetime of the unit.
func (b *Batch) Emitted() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.emitted
}

// Concat joins the queued chunks in append order without clearing them.
func (b *Batch) Concat() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := 0
	for _, c := range b.chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, c := range b.chunks {
		out = append(out, c...)
	}
	return out
}

// Clear empties the queue after a successful upload acknowledgment. The
// emitted ordinal is preserved.
func (b *Batch) Clear() {
	b.mu.Lock()
	b.chunks = nil
	b.mu.Unlock()
}

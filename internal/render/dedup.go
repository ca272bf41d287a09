// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"crypto/sha256"
	"sync"
)

// =============================================================================
// DEDUP SINK
// =============================================================================

// Dedup forwards a text only when it differs from the last one forwarded.
//
// A producer may report the same full string many times (a record with an
// empty delta, a step that decoded to the same text). Comparing content
// hashes keeps the sink idempotent under repeated replacement without
// retaining a copy of every string.
//
// Thread-safety: All operations are protected by a mutex.
type Dedup struct {
	mu       sync.Mutex
	next     Sink
	lastHash [sha256.Size]byte
	hasLast  bool
}

// NewDedup creates a dedup sink in front of next.
func NewDedup(next Sink) *Dedup {
	return &Dedup{next: next}
}

// Render implements Sink.
func (d *Dedup) Render(text string) {
	h := sha256.Sum256([]byte(text))

	d.mu.Lock()
	if d.hasLast && h == d.lastHash {
		d.mu.Unlock()
		return
	}
	d.lastHash = h
	d.hasLast = true
	d.mu.Unlock()

	d.next.Render(text)
}

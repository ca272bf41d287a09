// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// THROTTLE SINK
// =============================================================================

const (
	// DefaultMaxFPS is the forwarding rate used when none is given.
	DefaultMaxFPS = 30

	// MaxFPS caps the configurable rate.
	MaxFPS = 120
)

// Throttle limits how often texts reach the next sink.
//
// Because every text replaces the previous one, intermediate texts that
// arrive faster than the limit are coalesced: only the newest pending text is
// kept. A trailing timer delivers it once the limiter allows, so the last
// text of a burst is never lost. Flush delivers it immediately.
//
// Thread-safety: Render and Flush may be called from different goroutines.
// The next sink is always called with the mutex released, one call at a time.
type Throttle struct {
	mu      sync.Mutex
	next    Sink
	limiter *rate.Limiter
	pending string
	dirty   bool
	timer   *time.Timer
	gen     uint64
	closed  bool

	sendMu sync.Mutex
}

// NewThrottle creates a throttle forwarding at most maxFPS texts per second.
// A non-positive or excessive maxFPS selects DefaultMaxFPS.
func NewThrottle(next Sink, maxFPS int) *Throttle {
	if maxFPS <= 0 || maxFPS > MaxFPS {
		maxFPS = DefaultMaxFPS
	}
	return &Throttle{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Second/time.Duration(maxFPS)), 1),
	}
}

// Render implements Sink.
func (t *Throttle) Render(text string) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.pending = text
	t.dirty = true

	if t.timer != nil {
		// A trailing delivery is already scheduled and will pick this up.
		t.mu.Unlock()
		return
	}

	r := t.limiter.Reserve()
	delay := r.Delay()
	if delay == 0 {
		t.mu.Unlock()
		t.deliver()
		return
	}
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(delay, func() { t.fire(gen) })
	t.mu.Unlock()
}

func (t *Throttle) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		// Flushed or rescheduled since this timer was armed.
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.mu.Unlock()
	t.deliver()
}

// deliver forwards the pending text, if any.
func (t *Throttle) deliver() {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	t.mu.Lock()
	if !t.dirty {
		t.mu.Unlock()
		return
	}
	text := t.pending
	t.dirty = false
	t.mu.Unlock()

	t.next.Render(text)
}

// Flush cancels any scheduled delivery and forwards the pending text now.
func (t *Throttle) Flush() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
	t.mu.Unlock()
	t.deliver()
}

// Close flushes and then drops every later Render.
func (t *Throttle) Close() {
	t.Flush()
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}

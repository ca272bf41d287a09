// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"io"
	"strings"
	"sync"
)

// Writer is a Sink for append-only outputs such as pipes.
//
// While each text extends what was already written, only the new suffix is
// written. A text that does not extend it (the producer revised earlier
// output) cannot be retracted, so it is skipped and Diverged reports true.
// Writing resumes once a later text extends the written prefix again.
type Writer struct {
	mu       sync.Mutex
	w        io.Writer
	written  string
	diverged bool
	err      error
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Render implements Sink.
func (w *Writer) Render(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return
	}
	if !strings.HasPrefix(text, w.written) {
		w.diverged = true
		return
	}

	suffix := text[len(w.written):]
	if suffix == "" {
		return
	}
	if _, err := io.WriteString(w.w, suffix); err != nil {
		w.err = err
		return
	}
	w.written = text
}

// Written returns everything written so far.
func (w *Writer) Written() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Diverged reports whether any text was skipped because it did not extend
// the written output.
func (w *Writer) Diverged() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.diverged
}

// Err returns the first write error. After an error nothing more is written.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"strconv"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrCanceled is returned when the caller's cancellation signal fired while a
// stream was in flight. It is distinct from every data-level and transport
// error so callers can skip error reporting for user-initiated stops.
var ErrCanceled = errors.New("stream canceled")

// ErrLineTooLong is returned when a single unterminated line grows past the
// decoder's limit.
var ErrLineTooLong = errors.New("stream line exceeds maximum length")

// DecodeError reports a line that could not be parsed as JSON.
type DecodeError struct {
	// Line is the offending line with surrounding whitespace trimmed.
	Line string
	Err  error
}

func (e *DecodeError) Error() string {
	line := e.Line
	if len(line) > 120 {
		line = line[:120] + "..."
	}
	msg := "invalid JSON record " + strconv.Quote(line)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ReadError wraps a failure of the underlying reader, as opposed to a
// problem with the data it produced.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return "read stream: " + e.Err.Error()
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// IsCanceled reports whether err is a cancellation outcome.
// Deadline expiry is not a cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

// ContextErr maps a finished context onto the stream error taxonomy:
// explicit cancellation becomes ErrCanceled, anything else is returned as-is.
// Returns nil while ctx is still live.
func ContextErr(ctx context.Context) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return ErrCanceled
	}
	return err
}

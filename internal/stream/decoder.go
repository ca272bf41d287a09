// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
)

const (
	// DefaultChunkSize is the read size used by Decode.
	DefaultChunkSize = 32 * 1024

	// MaxLineBytes bounds the partial buffer of a LineDecoder.
	MaxLineBytes = 8 << 20
)

// RecordFunc receives one complete JSON record. Returning an error stops
// decoding and the error is handed back to the caller unchanged.
type RecordFunc func(rec json.RawMessage) error

// =============================================================================
// LINE DECODER
// =============================================================================

// LineDecoder splits a chunked byte stream into newline-delimited JSON records.
//
// The partial buffer holds the tail of the last incomplete line between calls
// to Feed. A LineDecoder belongs to exactly one stream and is not safe for
// concurrent use.
type LineDecoder struct {
	partial []byte
	maxLine int
}

// NewLineDecoder creates a decoder with the default line limit.
func NewLineDecoder() *LineDecoder {
	return &LineDecoder{maxLine: MaxLineBytes}
}

// NewLineDecoderWithLimit creates a decoder whose partial buffer may not exceed
// maxLine bytes. A non-positive limit disables the check.
func NewLineDecoderWithLimit(maxLine int) *LineDecoder {
	return &LineDecoder{maxLine: maxLine}
}

// Feed appends chunk to the partial buffer and emits every line it completes.
// The final, possibly incomplete, line is retained for the next call.
func (d *LineDecoder) Feed(chunk []byte, fn RecordFunc) error {
	// Only the new bytes can contain a newline we have not seen yet.
	scanFrom := len(d.partial)
	d.partial = append(d.partial, chunk...)

	start := 0
	for {
		i := bytes.IndexByte(d.partial[scanFrom:], '\n')
		if i < 0 {
			break
		}
		end := scanFrom + i
		if err := emit(d.partial[start:end], fn); err != nil {
			d.partial = d.partial[:0]
			return err
		}
		start = end + 1
		scanFrom = start
	}

	n := copy(d.partial, d.partial[start:])
	d.partial = d.partial[:n]

	if d.maxLine > 0 && len(d.partial) > d.maxLine {
		d.partial = d.partial[:0]
		return ErrLineTooLong
	}
	return nil
}

// Flush emits the buffered tail as a final record if it is not blank, which
// captures output that was not newline-terminated. The buffer is discarded.
func (d *LineDecoder) Flush(fn RecordFunc) error {
	tail := d.partial
	d.partial = nil
	return emit(tail, fn)
}

// Buffered returns the number of bytes waiting for a line terminator.
func (d *LineDecoder) Buffered() int {
	return len(d.partial)
}

// emit parses one candidate line. Blank lines are keep-alives and are dropped.
func emit(line []byte, fn RecordFunc) error {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}
	if !json.Valid(line) {
		var probe any
		err := json.Unmarshal(line, &probe)
		return &DecodeError{Line: string(line), Err: err}
	}
	// The backing array is reused by the next Feed.
	rec := make(json.RawMessage, len(line))
	copy(rec, line)
	return fn(rec)
}

// =============================================================================
// READER DRIVERS
// =============================================================================

// Decode reads r chunk by chunk and calls fn for every record, in order.
//
// ctx is checked before each read and again when a read returns, so once it
// is cancelled no further record reaches fn and Decode returns ErrCanceled.
// A cancellation that happens before the first chunk therefore never invokes
// fn at all. On end-of-data the unterminated tail, if any, is emitted.
func Decode(ctx context.Context, r io.Reader, fn RecordFunc) error {
	d := NewLineDecoder()
	buf := make([]byte, DefaultChunkSize)

	for {
		if err := ContextErr(ctx); err != nil {
			return err
		}

		n, readErr := r.Read(buf)

		if err := ContextErr(ctx); err != nil {
			return err
		}
		if n > 0 {
			if err := d.Feed(buf[:n], fn); err != nil {
				return err
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return d.Flush(fn)
			}
			return &ReadError{Err: readErr}
		}
	}
}

// DecodeInto is Decode with each record unmarshalled into T. A record that is
// valid JSON but does not fit T is reported as a DecodeError.
func DecodeInto[T any](ctx context.Context, r io.Reader, fn func(T) error) error {
	return Decode(ctx, r, func(rec json.RawMessage) error {
		var v T
		if err := json.Unmarshal(rec, &v); err != nil {
			return &DecodeError{Line: string(rec), Err: err}
		}
		return fn(v)
	})
}

// errStopped is used internally when the consumer of Records stops early.
var errStopped = errors.New("stream: consumer stopped")

// Records returns a lazy sequence over the records of r. The body is read
// only as the consumer pulls values. A terminal error, including
// ErrCanceled, is yielded once as the last element. The sequence cannot be
// restarted; call Records again with a fresh reader.
func Records(ctx context.Context, r io.Reader) iter.Seq2[json.RawMessage, error] {
	return func(yield func(json.RawMessage, error) bool) {
		err := Decode(ctx, r, func(rec json.RawMessage) error {
			if !yield(rec, nil) {
				return errStopped
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopped) {
			yield(nil, err)
		}
	}
}

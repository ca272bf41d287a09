// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes chunked, newline-delimited JSON response bodies.
//
// A streaming inference endpoint writes one JSON object per line, but the
// transport delivers the body in chunks whose boundaries have nothing to do
// with line boundaries. The LineDecoder carries the incomplete tail of the
// last line across reads so that every complete line is parsed exactly once,
// in order.
//
// # Key Types
//
//   - LineDecoder: partial-line buffer owned by a single streaming call
//   - DecodeError: a line that is not valid JSON (fatal for the stream)
//   - ErrCanceled: the distinguished outcome of a user-initiated stop
//
// # Usage
//
//	err := stream.Decode(ctx, resp.Body, func(rec json.RawMessage) error {
//	    fmt.Println(string(rec))
//	    return nil
//	})
//	if stream.IsCanceled(err) {
//	    return nil // user pressed stop
//	}
//
// Or as a lazy sequence:
//
//	for rec, err := range stream.Records(ctx, body) {
//	    if err != nil {
//	        return err
//	    }
//	    handle(rec)
//	}
package stream

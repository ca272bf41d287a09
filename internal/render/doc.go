// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render provides the sinks a streamed response is rendered into.
//
// Every sink has replace semantics: Render receives the latest full response
// string, not a delta. Sinks compose, so a producer is usually handed a chain
// like Throttle -> Dedup -> the UI.
//
// # Key Types
//
//   - Sink: Receives the latest full text
//   - Dedup: Drops a string equal to the last one forwarded
//   - Throttle: Caps how often strings are forwarded, never losing the last one
//   - Writer: Appends only the new suffix to an io.Writer
//   - Markdown, HTML: Render untrusted model output safely
//
// # Usage
//
//	sink := render.NewThrottle(render.NewDedup(ui), 30)
//	defer sink.Flush()
package render

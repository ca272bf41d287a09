// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for an Ollama-compatible server.
//
// Only the endpoints a streaming chat front end needs are implemented:
// streaming generation, model listing, and a liveness probe.
//
// # Key Types
//
//   - Client: HTTP client for the Ollama API
//   - GenerateRequest / GenerateResponse: /api/generate wire types
//   - ModelInfo: one entry of /api/tags
//   - ClientError: categorized transport and protocol failures
//
// # Usage
//
//	client := ollama.NewClientWithConfig(ollama.DefaultConfig())
//	err := client.GenerateStream(ctx, ollama.GenerateRequest{
//	    Model:  "llama3.2",
//	    Prompt: "Why is the sky blue?",
//	}, func(r ollama.GenerateResponse) error {
//	    fmt.Print(r.Response)
//	    return nil
//	})
//
// The response body is decoded with package stream, so records split across
// network reads are reassembled, and cancelling ctx ends the call with
// stream.ErrCanceled rather than a ClientError.
package ollama

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package local runs an in-process generator and turns its per-step token
// callbacks into a stream of full response strings.
//
// # Key Types
//
//   - Generator: Produces token ids, reporting the cumulative ids after each step
//   - Tokenizer: Converts between text and token ids
//   - Adapter: Templates the prompt and forwards cleaned text to a render.Sink
//   - MarkovModel: A small bigram generator usable without a model runtime
//
// # Usage
//
//	tok := local.ByteTokenizer{}
//	model := local.NewMarkovModel(corpus, tok)
//	adapter := local.NewAdapter(model, tok, local.AdapterConfig{})
//	text, err := adapter.Generate(ctx, "hello", local.GenerationConfig{MaxNewTokens: 32}, sink)
package local

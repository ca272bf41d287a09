// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package local

import "context"

// Step is the state reported to the step callback after each generated token.
type Step struct {
	ids []int
}

// NewStep wraps the cumulative token ids of a generation step.
func NewStep(ids []int) Step {
	return Step{ids: ids}
}

// TokenIDs returns every id produced so far, prompt echo first.
// The slice must not be modified.
func (s Step) TokenIDs() []int {
	return s.ids
}

// GenerationConfig controls a single call to Generator.Generate.
type GenerationConfig struct {
	// MaxNewTokens bounds the number of generated tokens.
	MaxNewTokens int

	// Temperature scales the sampling distribution. Zero or less is greedy.
	Temperature float64

	// DoSample selects sampling; when false the most likely token is chosen.
	DoSample bool

	// TopK limits sampling to the K most likely tokens. Zero disables it.
	TopK int

	// Seed makes sampling deterministic.
	Seed int64

	// OnStep is called synchronously after each generated token.
	OnStep func(Step)
}

// Result is the outcome of a completed generation.
type Result struct {
	// TokenIDs holds the prompt ids followed by the generated ids.
	TokenIDs []int

	// NewTokens is the number of generated tokens.
	NewTokens int
}

// Generator produces tokens for a prompt.
//
// Implementations must check ctx before every step and return
// stream.ErrCanceled once it has been cancelled.
type Generator interface {
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (Result, error)
}

// Tokenizer converts between text and token ids.
type Tokenizer interface {
	Encode(text string) []int
	Decode(ids []int) string
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package local

import (
	"context"
	"strings"

	"github.com/jeranaias/streamchat/internal/render"
	"github.com/jeranaias/streamchat/internal/stream"
)

// =============================================================================
// CHAT TEMPLATE
// =============================================================================

const (
	// DefaultMarker opens the assistant turn in the chat template.
	DefaultMarker = "<|im_start|>assistant\n"

	// DefaultEndMarker closes a turn.
	DefaultEndMarker = "<|im_end|>"

	// DefaultTemplate wraps the user prompt; {prompt} is replaced verbatim.
	DefaultTemplate = "<|im_start|>user\n{prompt}<|im_end|>\n<|im_start|>assistant\n"
)

// AdapterConfig configures the chat template. Empty fields take the defaults.
type AdapterConfig struct {
	Template  string
	Marker    string
	EndMarker string
}

// =============================================================================
// ADAPTER
// =============================================================================

// Adapter bridges a Generator's step callbacks to a render.Sink.
//
// After every step the cumulative ids are decoded, everything up to and
// including the last assistant marker is removed, and the remaining text is
// handed to the sink as a replacement for what it showed before. Nothing is
// forwarded until the marker has been decoded.
type Adapter struct {
	gen Generator
	tok Tokenizer
	cfg AdapterConfig
}

// NewAdapter creates an adapter for gen and tok.
func NewAdapter(gen Generator, tok Tokenizer, cfg AdapterConfig) *Adapter {
	if cfg.Template == "" {
		cfg.Template = DefaultTemplate
	}
	if cfg.Marker == "" {
		cfg.Marker = DefaultMarker
	}
	if cfg.EndMarker == "" {
		cfg.EndMarker = DefaultEndMarker
	}
	return &Adapter{gen: gen, tok: tok, cfg: cfg}
}

// Prompt applies the chat template to prompt.
func (a *Adapter) Prompt(prompt string) string {
	return strings.ReplaceAll(a.cfg.Template, "{prompt}", prompt)
}

// Generate runs one generation and streams the cleaned response into sink.
//
// The returned text is the final response. On failure it is the last text
// forwarded, and a cancellation is reported as stream.ErrCanceled.
func (a *Adapter) Generate(ctx context.Context, prompt string, cfg GenerationConfig, sink render.Sink) (string, error) {
	if err := stream.ContextErr(ctx); err != nil {
		return "", err
	}

	var last string
	userStep := cfg.OnStep
	cfg.OnStep = func(s Step) {
		if userStep != nil {
			userStep(s)
		}
		if ctx.Err() != nil {
			return
		}
		text, ok := a.Extract(a.tok.Decode(s.TokenIDs()), false)
		if !ok {
			return
		}
		last = text
		sink.Render(text)
	}

	res, err := a.gen.Generate(ctx, a.Prompt(prompt), cfg)
	if err == nil {
		err = stream.ContextErr(ctx)
	}
	if err != nil {
		if stream.IsCanceled(err) {
			return last, stream.ErrCanceled
		}
		return last, err
	}

	text, ok := a.Extract(a.tok.Decode(res.TokenIDs), true)
	if !ok {
		return "", nil
	}
	if text != last {
		sink.Render(text)
	}
	return text, nil
}

// Extract returns the assistant's text from decoded output, and false while
// the marker has not appeared. The end marker and anything after it are cut.
// While streaming (final false) a trailing prefix of the end marker is held
// back so it never flashes on screen.
func (a *Adapter) Extract(decoded string, final bool) (string, bool) {
	idx := strings.LastIndex(decoded, a.cfg.Marker)
	if idx < 0 {
		return "", false
	}
	text := decoded[idx+len(a.cfg.Marker):]

	if end := strings.Index(text, a.cfg.EndMarker); end >= 0 {
		text = text[:end]
	} else if !final {
		for k := len(a.cfg.EndMarker) - 1; k > 0; k-- {
			if strings.HasSuffix(text, a.cfg.EndMarker[:k]) {
				text = text[:len(text)-k]
				break
			}
		}
	}

	return trimPartialRune(text), true
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"strings"
	"sync"

	"github.com/jeranaias/streamchat/internal/local"
	"github.com/jeranaias/streamchat/internal/ollama"
	"github.com/jeranaias/streamchat/internal/render"
)

// Producer streams a response for prompt into sink. Every Render call
// receives the full text so far. The returned string is the final text, or
// the text produced before a failure.
type Producer interface {
	Produce(ctx context.Context, prompt string, sink render.Sink) (string, error)

	// Name identifies the backend in logs.
	Name() string
}

// =============================================================================
// REMOTE PRODUCER
// =============================================================================

// Remote produces text from an Ollama /api/generate stream.
type Remote struct {
	client  *ollama.Client
	model   string
	system  string
	options *ollama.Options

	mu   sync.Mutex
	last ollama.GenerateResponse
}

// NewRemote creates a producer on client. An empty model uses the client's
// default; options may be nil.
func NewRemote(client *ollama.Client, model, system string, options *ollama.Options) *Remote {
	return &Remote{client: client, model: model, system: system, options: options}
}

// Name implements Producer.
func (r *Remote) Name() string {
	return "remote"
}

// Produce implements Producer. The fragment of each record is appended to
// the accumulated text and the whole text is rendered.
func (r *Remote) Produce(ctx context.Context, prompt string, sink render.Sink) (string, error) {
	req := ollama.GenerateRequest{
		Model:   r.model,
		Prompt:  prompt,
		System:  r.system,
		Options: r.options,
	}

	var text strings.Builder
	err := r.client.GenerateStream(ctx, req, func(resp ollama.GenerateResponse) error {
		if resp.Done {
			r.mu.Lock()
			r.last = resp
			r.mu.Unlock()
		}
		if resp.Response == "" {
			return nil
		}
		text.WriteString(resp.Response)
		sink.Render(text.String())
		return nil
	})
	return text.String(), err
}

// LastStats returns the final record of the most recent completed stream.
func (r *Remote) LastStats() ollama.GenerateResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// =============================================================================
// LOCAL PRODUCER
// =============================================================================

// LocalProducer produces text with an in-process generator.
type LocalProducer struct {
	adapter *local.Adapter
	cfg     local.GenerationConfig
}

// NewLocalProducer creates a producer running adapter with cfg.
func NewLocalProducer(adapter *local.Adapter, cfg local.GenerationConfig) *LocalProducer {
	return &LocalProducer{adapter: adapter, cfg: cfg}
}

// Name implements Producer.
func (p *LocalProducer) Name() string {
	return "local"
}

// Produce implements Producer.
func (p *LocalProducer) Produce(ctx context.Context, prompt string, sink render.Sink) (string, error) {
	return p.adapter.Generate(ctx, prompt, p.cfg, sink)
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/streamchat/internal/config"
	"github.com/jeranaias/streamchat/internal/local"
	"github.com/jeranaias/streamchat/internal/ollama"
	"github.com/jeranaias/streamchat/internal/session"
)

// buildProducer creates the producer cfg.Backend selects. gen has already
// been applied to cfg.Local; the remote backend maps it onto Ollama options.
func buildProducer(cfg *config.Config, gen config.GenerationOptions) (session.Producer, error) {
	switch cfg.Backend {
	case config.BackendRemote:
		return session.NewRemote(newClient(cfg), cfg.Remote.Model, cfg.Remote.System, remoteOptions(gen)), nil
	case config.BackendLocal:
		return newLocalProducer(cfg.Local)
	default:
		return nil, &UsageError{Flag: "backend", Value: cfg.Backend, Reason: `must be "remote" or "local"`}
	}
}

func newClient(cfg *config.Config) *ollama.Client {
	return ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      cfg.Remote.Host,
		Timeout:      cfg.Remote.Timeout,
		DefaultModel: cfg.Remote.Model,
	})
}

func newLocalProducer(lc config.LocalConfig) (*session.LocalProducer, error) {
	corpus := local.DefaultCorpus
	if lc.Corpus != "" {
		data, err := os.ReadFile(lc.Corpus)
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus: %w", err)
		}
		corpus = string(data)
	}

	tok := local.ByteTokenizer{}
	adapter := local.NewAdapter(local.NewMarkovModel(corpus, tok), tok, local.AdapterConfig{
		Template:  lc.Template,
		Marker:    lc.Marker,
		EndMarker: lc.EndMarker,
	})
	return session.NewLocalProducer(adapter, local.GenerationConfig{
		MaxNewTokens: lc.MaxNewTokens,
		Temperature:  lc.Temperature,
		DoSample:     lc.DoSample,
		TopK:         lc.TopK,
		Seed:         lc.Seed,
	}), nil
}

// remoteOptions maps --gen onto Ollama's options. Greedy decoding
// (do_sample=false or temperature=0) is sent as top_k=1, since a zero
// temperature is omitted from the request. Nil means the server defaults apply.
func remoteOptions(gen config.GenerationOptions) *ollama.Options {
	if gen.Empty() {
		return nil
	}
	opts := &ollama.Options{}
	if gen.MaxNewTokens != nil {
		opts.NumPredict = *gen.MaxNewTokens
	}
	if gen.Temperature != nil {
		opts.Temperature = *gen.Temperature
	}
	if gen.TopK != nil {
		opts.TopK = *gen.TopK
	}
	if (gen.DoSample != nil && !*gen.DoSample) || (gen.Temperature != nil && *gen.Temperature == 0) {
		opts.TopK = 1
	}
	if gen.Seed != nil {
		opts.Seed = int(*gen.Seed)
	}
	return opts
}

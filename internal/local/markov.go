// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package local

import (
	"cmp"
	"context"
	"math"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/jeranaias/streamchat/internal/stream"
)

// =============================================================================
// MARKOV MODEL
// =============================================================================

const (
	defaultMaxNewTokens = 128

	// endWord marks the end of a paragraph in the transition table.
	endWord = "\x00"

	// startState is the state before the first generated word.
	startState = ""
)

// DefaultCorpus trains the model when no corpus file is configured.
const DefaultCorpus = `Streaming keeps the reader in the loop. Each record carries a little more of the answer and the screen shows the whole text so far.

A stream can stop at any time. The user presses escape and the current turn ends with the text that already arrived.

The local model is small and quick. It learns which word tends to follow which and it samples the next word from what it saw.

Markdown keeps the answer readable. Lists, code and headings are rendered once the text is complete.`

// MarkovModel is a word-level bigram Generator.
//
// Each generated word is one step; its text (with a separating space) is
// encoded by the tokenizer and appended to the cumulative ids. When the
// model reaches the end of a paragraph it emits EndText and stops.
type MarkovModel struct {
	tok Tokenizer

	// EndText is emitted when generation reaches a paragraph end.
	EndText string

	next map[string]map[string]int
}

// NewMarkovModel trains a model on corpus. An empty corpus selects DefaultCorpus.
func NewMarkovModel(corpus string, tok Tokenizer) *MarkovModel {
	if strings.TrimSpace(corpus) == "" {
		corpus = DefaultCorpus
	}
	m := &MarkovModel{
		tok:     tok,
		EndText: DefaultEndMarker,
		next:    make(map[string]map[string]int),
	}

	for _, para := range strings.Split(corpus, "\n\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		prev := startState
		for _, w := range words {
			m.observe(prev, w)
			prev = w
		}
		m.observe(prev, endWord)
	}
	return m
}

func (m *MarkovModel) observe(from, to string) {
	counts := m.next[from]
	if counts == nil {
		counts = make(map[string]int)
		m.next[from] = counts
	}
	counts[to]++
}

// Generate implements Generator.
func (m *MarkovModel) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (Result, error) {
	ids := m.tok.Encode(prompt)
	maxNew := cfg.MaxNewTokens
	if maxNew <= 0 {
		maxNew = defaultMaxNewTokens
	}

	seed := uint64(cfg.Seed)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	state := startState
	generated := 0
	for generated < maxNew {
		if err := stream.ContextErr(ctx); err != nil {
			return Result{TokenIDs: ids, NewTokens: generated}, err
		}

		word := m.sample(state, cfg, rng)
		generated++

		if word == endWord {
			ids = append(ids, m.tok.Encode(m.EndText)...)
			if cfg.OnStep != nil {
				cfg.OnStep(NewStep(ids))
			}
			break
		}

		piece := word
		if state != startState {
			piece = " " + word
		}
		ids = append(ids, m.tok.Encode(piece)...)
		state = word

		if cfg.OnStep != nil {
			cfg.OnStep(NewStep(ids))
		}
	}

	if err := stream.ContextErr(ctx); err != nil {
		return Result{TokenIDs: ids, NewTokens: generated}, err
	}
	return Result{TokenIDs: ids, NewTokens: generated}, nil
}

type candidate struct {
	word  string
	count int
}

// sample picks the successor of state. Candidates are ordered by count, then
// lexically, so greedy decoding and a fixed seed are reproducible.
func (m *MarkovModel) sample(state string, cfg GenerationConfig, rng *rand.Rand) string {
	counts := m.next[state]
	if len(counts) == 0 {
		return endWord
	}

	cands := make([]candidate, 0, len(counts))
	for w, c := range counts {
		cands = append(cands, candidate{word: w, count: c})
	}
	slices.SortFunc(cands, func(a, b candidate) int {
		if a.count != b.count {
			return cmp.Compare(b.count, a.count)
		}
		return strings.Compare(a.word, b.word)
	})

	if cfg.TopK > 0 && len(cands) > cfg.TopK {
		cands = cands[:cfg.TopK]
	}
	if !cfg.DoSample || cfg.Temperature <= 0 || len(cands) == 1 {
		return cands[0].word
	}

	// Softmax over log-counts scaled by temperature.
	maxLogit := math.Log(float64(cands[0].count)) / cfg.Temperature
	weights := make([]float64, len(cands))
	var total float64
	for i, c := range cands {
		weights[i] = math.Exp(math.Log(float64(c.count))/cfg.Temperature - maxLogit)
		total += weights[i]
	}

	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return cands[i].word
		}
	}
	return cands[len(cands)-1].word
}

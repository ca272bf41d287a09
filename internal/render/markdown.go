// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// TERMINAL MARKDOWN
// =============================================================================

// DefaultWrap is the word-wrap width used when none is given.
const DefaultWrap = 80

// Markdown renders model output as styled terminal text.
type Markdown struct {
	mu sync.Mutex
	r  *glamour.TermRenderer
}

// NewMarkdown creates a renderer. An empty style detects the terminal
// background; otherwise style names a glamour standard style ("dark",
// "light", "notty", "ascii").
func NewMarkdown(style string, width int) (*Markdown, error) {
	if width <= 0 {
		width = DefaultWrap
	}
	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}

	r, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &Markdown{r: r}, nil
}

// Render sanitizes text and renders it as markdown.
func (m *Markdown) Render(text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.r.Render(Sanitize(text))
}

// RenderOrPlain renders text, falling back to the sanitized plain text if
// rendering fails.
func (m *Markdown) RenderOrPlain(text string) string {
	out, err := m.Render(text)
	if err != nil {
		return Sanitize(text)
	}
	return out
}

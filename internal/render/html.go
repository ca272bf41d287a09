// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// =============================================================================
// HTML
// =============================================================================

// HTML renders model output as sanitized HTML.
//
// Markdown is converted with goldmark (GitHub flavored, raw HTML passed
// through) and the result is filtered with bluemonday's user-generated
// content policy, which removes scripts, event handlers and unsafe URLs.
// Both are safe for concurrent use.
type HTML struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewHTML creates an HTML renderer.
func NewHTML() *HTML {
	return &HTML{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps(), html.WithUnsafe()),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// Render converts text to sanitized HTML.
func (h *HTML) Render(text string) (string, error) {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(Sanitize(text)), &buf); err != nil {
		return "", err
	}
	return h.policy.Sanitize(buf.String()), nil
}

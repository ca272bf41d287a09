// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Sanitize makes untrusted model output safe to print to a terminal.
//
// Invalid UTF-8 is replaced with U+FFFD, ANSI escape sequences are removed,
// and every C0/C1 control character except newline and tab is dropped. A
// model can therefore not move the cursor, retitle the window or rewrite
// earlier lines.
func Sanitize(text string) string {
	text = strings.ToValidUTF8(text, "\uFFFD")
	text = ansi.Strip(text)

	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		case r >= 0x80 && r <= 0x9f:
			return -1
		}
		return r
	}, text)
}

// Sanitizing returns a Sink that sanitizes each text before forwarding it.
func Sanitizing(next Sink) Sink {
	return Map(next, Sanitize)
}

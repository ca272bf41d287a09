// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package local

import "unicode/utf8"

// ByteTokenizer maps every byte of the UTF-8 encoding to its own id (0-255).
type ByteTokenizer struct{}

// Encode returns the bytes of text as ids.
func (ByteTokenizer) Encode(text string) []int {
	ids := make([]int, len(text))
	for i := 0; i < len(text); i++ {
		ids[i] = int(text[i])
	}
	return ids
}

// Decode converts ids back into text. Ids outside the byte range are skipped,
// and an incomplete multi-byte rune at the end is held back.
func (ByteTokenizer) Decode(ids []int) string {
	buf := make([]byte, 0, len(ids))
	for _, id := range ids {
		if id < 0 || id > 0xff {
			continue
		}
		buf = append(buf, byte(id))
	}
	return trimPartialRune(string(buf))
}

// trimPartialRune drops a trailing rune whose encoding has not fully arrived.
// Invalid bytes are left to the renderer.
func trimPartialRune(s string) string {
	for i := len(s) - 1; i >= 0 && i >= len(s)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(s[i]) {
			continue
		}
		if !utf8.FullRuneInString(s[i:]) {
			return s[:i]
		}
		return s
	}
	return s
}

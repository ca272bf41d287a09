// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

const (
	defaultTerminalWidth = 80
	minTerminalWidth     = 40
)

// isTerminal reports whether w is a terminal. Writers that are not files,
// such as buffers in tests, are never terminals.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w, or a default when it is unknown.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return defaultTerminalWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultTerminalWidth
	}
	return max(width, minTerminalWidth)
}

// colorsEnabled reports whether stdout should get colored output.
func colorsEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isTerminal(os.Stdout)
}

func colorProfile() termenv.Profile {
	if !colorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/streamchat/internal/config"
	"github.com/jeranaias/streamchat/internal/ollama"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitNetworkError = 5
	ExitNotFound     = 7
	ExitTimeout      = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError is a bad flag or argument.
type UsageError struct {
	Flag   string
	Value  string
	Reason string
}

func (e *UsageError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Flag, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	return msg
}

// ConfigError wraps a failure to load or save the config file.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	var cfgErr *ConfigError
	var validateErrs config.ValidateErrors
	switch {
	case errors.As(err, &usageErr):
		return ExitUsageError
	case errors.As(err, &cfgErr), errors.As(err, &validateErrs):
		return ExitConfigError
	case ollama.IsModelNotFound(err):
		return ExitNotFound
	case ollama.IsTimeout(err):
		return ExitTimeout
	case ollama.IsNotRunning(err), ollama.IsConnection(err):
		return ExitNetworkError
	}
	return ExitGeneralError
}

// hint returns a suggestion for recovering from err, or "".
func hint(err error) string {
	switch {
	case ollama.IsNotRunning(err):
		return "Is Ollama running? Start it with: ollama serve"
	case ollama.IsModelNotFound(err):
		return "Pull the model first with: ollama pull <model>"
	case ollama.IsTimeout(err):
		return "The host did not answer in time; check --host or raise [remote] timeout"
	case ollama.IsConnection(err):
		return "The connection to Ollama failed; check that --host points at an Ollama server"
	case ollama.IsDecode(err):
		return "The server sent a malformed stream; check that --host points at an Ollama server"
	}
	return ""
}

// printError writes err and its hint in the CLI's error style.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", errorStyle.Render("Error:"), err)
	if h := hint(err); h != "" {
		fmt.Fprintln(w, dimStyle.Render(h))
	}
}

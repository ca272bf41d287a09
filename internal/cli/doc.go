// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the streamchat command line.
//
// # Commands
//
//   - streamchat: interactive chat TUI
//   - streamchat ask <prompt>: stream one answer to stdout
//   - streamchat models: list models on the Ollama host
//   - streamchat status: check that the Ollama host is reachable
//   - streamchat config show|path|init: inspect or create the config file
//
// Global flags (--config, --backend, --host, --model, --gen) override the
// config file for a single invocation. --gen takes a query-string style list
// such as "max_new_tokens=64&temperature=0.2&seed=7".
//
// # Usage
//
//	if err := cli.Execute(version); err != nil {
//	    os.Exit(cli.ExitCode(err))
//	}
package cli

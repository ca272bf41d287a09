// streamchat - stream chat answers from Ollama or a local model.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/jeranaias/streamchat/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

func main() {
	if err := cli.Execute(Version + " (" + GitCommit + ")"); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}

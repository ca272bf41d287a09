// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jeranaias/streamchat/internal/config"
)

func newStatusCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the Ollama host is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := root.load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("streamchat status"))
			row(out, "Config", path)
			row(out, "Backend", cfg.Backend)
			if cfg.Backend == config.BackendLocal {
				corpus := cfg.Local.Corpus
				if corpus == "" {
					corpus = "built-in"
				}
				row(out, "Corpus", corpus)
			}
			row(out, "Host", cfg.Remote.Host)

			client := newClient(cfg)
			if err := client.CheckRunning(cmd.Context()); err != nil {
				row(out, "Ollama", errorStyle.Render("unreachable"))
				return err
			}
			row(out, "Ollama", successStyle.Render("running"))

			models, err := client.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			state := errorStyle.Render("not installed")
			for _, m := range models {
				if m.Name == cfg.Remote.Model {
					state = successStyle.Render("installed")
					break
				}
			}
			row(out, "Model", cfg.Remote.Model+" "+state)

			return nil
		},
	}
}

func row(w io.Writer, label, value string) {
	fmt.Fprintln(w, labelStyle.Render(label)+valueStyle.Render(value))
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newModelsCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models available on the Ollama host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := root.load()
			if err != nil {
				return err
			}

			models, err := newClient(cfg).ListModels(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(models) == 0 {
				fmt.Fprintln(out, dimStyle.Render("No models installed. Pull one with: ollama pull <model>"))
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("NAME", "SIZE", "PARAMS", "QUANT", "MODIFIED")
			for i := range models {
				m := &models[i]
				name := m.Name
				if name == cfg.Remote.Model {
					name += " *"
				}
				t.Row(name, m.FormatSize(), m.Details.ParameterSize, m.Details.QuantizationLevel,
					m.ModifiedAt.Format("2006-01-02"))
			}
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}
}

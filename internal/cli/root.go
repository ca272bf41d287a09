// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/streamchat/internal/config"
	"github.com/jeranaias/streamchat/internal/logging"
	"github.com/jeranaias/streamchat/internal/session"
	"github.com/jeranaias/streamchat/internal/ui/chat"
)

// logFileName is the TUI's log file when [log] file is not set.
const logFileName = "streamchat.log"

// rootOptions holds the global flags.
type rootOptions struct {
	configPath string
	backend    string
	host       string
	model      string
	gen        string
}

// NewRootCommand builds the streamchat command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "streamchat",
		Short: "Stream chat answers from Ollama or a local model",
		Long: `streamchat streams answers from an Ollama server or an in-process
model and renders them as they arrive.

Run without arguments to open the interactive chat.

Examples:
  streamchat
  streamchat ask "explain goroutines in one paragraph"
  echo "summarize this" | streamchat ask -
  streamchat --backend local --gen "max_new_tokens=64&seed=7" ask hello`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "config file (default ~/.streamchat/config.toml)")
	f.StringVar(&opts.backend, "backend", "", `backend to use: "remote" or "local"`)
	f.StringVar(&opts.host, "host", "", "Ollama host URL")
	f.StringVar(&opts.model, "model", "", "Ollama model name")
	f.StringVar(&opts.gen, "gen", "", `generation options, e.g. "max_new_tokens=64&temperature=0.2"`)

	cmd.AddCommand(
		newAskCommand(opts),
		newModelsCommand(opts),
		newStatusCommand(opts),
		newConfigCommand(opts),
	)
	return cmd
}

// Execute runs the command line and prints any error to stderr.
func Execute(version string) error {
	cmd := NewRootCommand(version)
	err := cmd.Execute()
	if err != nil {
		printError(cmd.ErrOrStderr(), err)
	}
	return err
}

// =============================================================================
// CONFIG LOADING
// =============================================================================

// path returns the config file path the flags select.
func (o *rootOptions) path() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.Path()
}

// load reads the config file and applies the flags to it.
func (o *rootOptions) load() (*config.Config, string, error) {
	path, err := o.path()
	if err != nil {
		return nil, "", &ConfigError{Path: "path", Err: err}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, &ConfigError{Path: path, Err: err}
	}
	if err := o.apply(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// apply overrides cfg with the flags and validates the result.
func (o *rootOptions) apply(cfg *config.Config) error {
	if o.backend != "" {
		cfg.Backend = strings.ToLower(o.backend)
	}
	if o.host != "" {
		cfg.Remote.Host = o.host
	}
	if o.model != "" {
		cfg.Remote.Model = o.model
	}
	gen, err := o.generation()
	if err != nil {
		return err
	}
	cfg.ApplyGenerationOptions(gen)
	return cfg.Validate()
}

func (o *rootOptions) generation() (config.GenerationOptions, error) {
	gen, err := config.ParseGenerationOptions(o.gen)
	if err != nil {
		return config.GenerationOptions{}, &UsageError{Flag: "--gen", Value: o.gen, Reason: err.Error()}
	}
	return gen, nil
}

// producer builds the producer for cfg, which has already been through apply.
func (o *rootOptions) producer(cfg *config.Config) (session.Producer, error) {
	gen, err := o.generation()
	if err != nil {
		return nil, err
	}
	return buildProducer(cfg, gen)
}

// =============================================================================
// TUI
// =============================================================================

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	cfg, path, err := opts.load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, filepath.Join(filepath.Dir(path), logFileName))
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	defer func() { _ = logger.Sync() }()

	p, err := opts.producer(cfg)
	if err != nil {
		return err
	}
	sess := session.New(p, logger)
	sess.SetAutoScroll(cfg.UI.AutoScroll)

	return chat.Run(cmd.Context(), chat.Options{
		Session:    sess,
		Config:     cfg,
		ConfigPath: path,
		BuildProducer: func(c *config.Config) (session.Producer, error) {
			if err := opts.apply(c); err != nil {
				return nil, err
			}
			return opts.producer(c)
		},
		Logger: logger,
	})
}

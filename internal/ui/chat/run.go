// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/streamchat/internal/config"
	"github.com/jeranaias/streamchat/internal/session"
)

// Options configures Run.
type Options struct {
	Session *session.Session
	Config  *config.Config

	// ConfigPath is watched for changes. Empty disables reloading.
	ConfigPath string

	// BuildProducer turns a reloaded config into a producer.
	BuildProducer BuildFunc

	Logger *zap.Logger
}

// Run starts the TUI and blocks until the user quits or ctx is done. Any
// active turn is stopped before Run returns.
func Run(ctx context.Context, opts Options) error {
	if opts.Session == nil {
		return errors.New("chat: no session")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer opts.Session.Stop()

	m := New(ctx, opts.Session, cfg, opts.BuildProducer, resolveStyle(cfg.UI.Style), logger)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	m.send.bind(p.Send)

	if opts.ConfigPath != "" && opts.BuildProducer != nil {
		err := config.Watch(ctx, opts.ConfigPath, func(c *config.Config, err error) {
			p.Send(ConfigReloadedMsg{Config: c, Err: err})
		})
		if err != nil {
			logger.Warn("config watch disabled", zap.String("path", opts.ConfigPath), zap.Error(err))
		}
	}

	logger.Info("tui started", zap.String("backend", cfg.Backend))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}
	logger.Info("tui stopped")
	return err
}

// resolveStyle picks a glamour style before the program owns the terminal,
// so markdown rendering never has to query the background color.
func resolveStyle(style string) string {
	if style != "" {
		return style
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

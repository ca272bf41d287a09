// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap logger used across streamchat.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jeranaias/streamchat/internal/config"
)

// New builds a JSON logger from cfg. Output goes to cfg.File, or to
// fallbackFile when cfg.File is empty, or to stderr when both are empty.
// The TUI passes a fallback file because it owns the terminal.
func New(cfg config.LogConfig, fallbackFile string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	out := cfg.File
	if out == "" {
		out = fallbackFile
	}
	if out == "" {
		out = "stderr"
	} else if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{out}
	zcfg.ErrorOutputPaths = []string{out}
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.DisableStacktrace = level > zapcore.DebugLevel

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Named("streamchat"), nil
}

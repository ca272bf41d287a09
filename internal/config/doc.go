// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for streamchat.
//
// Configuration is a single TOML file with sensible defaults, environment
// variable overrides, strict key checking and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - RemoteConfig: Ollama host, model and request timeout
//   - LocalConfig: In-process generator and chat template settings
//   - GenerationOptions: Per-invocation overrides parsed from --gen
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command line flags (--backend, --host, --model, --gen)
//   - Environment variables (STREAMCHAT_*)
//   - ~/.streamchat/config.toml, or the file named by --config
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//
// Apply generation overrides:
//
//	opts, err := config.ParseGenerationOptions("temperature=0.2&seed=7")
//	cfg.ApplyGenerationOptions(opts)
package config

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/streamchat/internal/local"
	"github.com/jeranaias/streamchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

const (
	BackendRemote = "remote"
	BackendLocal  = "local"
)

// Config is the main configuration structure.
type Config struct {
	// Backend selects the producer: "remote" or "local".
	Backend string `toml:"backend"`

	Remote RemoteConfig `toml:"remote"`
	Local  LocalConfig  `toml:"local"`
	UI     UIConfig     `toml:"ui"`
	Log    LogConfig    `toml:"log"`
}

// RemoteConfig configures the Ollama backend.
type RemoteConfig struct {
	Host    string        `toml:"host"`
	Model   string        `toml:"model"`
	System  string        `toml:"system"`
	Timeout time.Duration `toml:"timeout"` // non-streaming requests only
}

// LocalConfig configures the in-process backend.
type LocalConfig struct {
	// Corpus is a text file the local model learns from. Empty uses the
	// built-in corpus.
	Corpus string `toml:"corpus"`

	Template  string `toml:"template"`
	Marker    string `toml:"marker"`
	EndMarker string `toml:"end_marker"`

	MaxNewTokens int     `toml:"max_new_tokens"`
	Temperature  float64 `toml:"temperature"`
	DoSample     bool    `toml:"do_sample"`
	TopK         int     `toml:"top_k"`
	Seed         int64   `toml:"seed"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	MaxFPS     int    `toml:"max_fps"`
	Markdown   bool   `toml:"markdown"`
	AutoScroll bool   `toml:"auto_scroll"`
	Style      string `toml:"style"` // glamour style; empty detects the terminal
}

// LogConfig contains logging settings.
type LogConfig struct {
	// File receives the log. Empty logs to stderr, except in the TUI which
	// uses streamchat.log in the config directory.
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	maxNewTokensLimit = 8192
	maxTemperature    = 5.0
	maxFPSLimit       = 120
)

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Backend: BackendRemote,
		Remote: RemoteConfig{
			Host:    "http://127.0.0.1:11434",
			Model:   "llama3.2",
			Timeout: 30 * time.Second,
		},
		Local: LocalConfig{
			Template:     local.DefaultTemplate,
			Marker:       local.DefaultMarker,
			EndMarker:    local.DefaultEndMarker,
			MaxNewTokens: 128,
			Temperature:  0.8,
			DoSample:     true,
			TopK:         40,
		},
		UI: UIConfig{
			MaxFPS:     30,
			Markdown:   true,
			AutoScroll: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the streamchat configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".streamchat"), nil
}

// Path returns the path of the default config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the config file at path, or the default path when path is
// empty. A missing file yields the defaults. Environment overrides are
// applied before validation.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadTOML decodes the file at path over cfg. Keys the file sets replace the
// values already in cfg; a key that matches no field is an error.
func LoadTOML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return decode(cfg, data, path)
}

func decode(cfg *Config, data []byte, name string) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("%s: unknown config keys: %s", name, strings.Join(keys, ", "))
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to the default path.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path atomically.
func SaveTOML(cfg *Config, path string) error {
	data, err := cfg.Encode()
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Encode returns cfg as a TOML document with a header comment.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# streamchat configuration file\n")
	buf.WriteString("# backend is \"remote\" (Ollama) or \"local\" (in-process)\n\n")

	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// String returns the TOML form of the config.
func (c *Config) String() string {
	data, err := c.Encode()
	if err != nil {
		return err.Error()
	}
	return string(data)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every enumerated and ranged option.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Backend != BackendRemote && c.Backend != BackendLocal {
		add("backend", "must be %q or %q, got %q", BackendRemote, BackendLocal, c.Backend)
	}

	// Remote
	if u, err := url.Parse(c.Remote.Host); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("remote.host", "must be an http or https URL, got %q", c.Remote.Host)
	}
	if c.Remote.Timeout <= 0 {
		add("remote.timeout", "must be positive")
	}

	// Local
	if !strings.Contains(c.Local.Template, "{prompt}") {
		add("local.template", "must contain {prompt}")
	}
	if c.Local.Marker == "" {
		add("local.marker", "must not be empty")
	}
	if c.Local.EndMarker == "" {
		add("local.end_marker", "must not be empty")
	}
	if c.Local.MaxNewTokens < 1 || c.Local.MaxNewTokens > maxNewTokensLimit {
		add("local.max_new_tokens", "must be between 1 and %d", maxNewTokensLimit)
	}
	if c.Local.Temperature < 0 || c.Local.Temperature > maxTemperature {
		add("local.temperature", "must be between 0 and %g", maxTemperature)
	}
	if c.Local.TopK < 0 {
		add("local.top_k", "must not be negative")
	}

	// UI
	if c.UI.MaxFPS < 1 || c.UI.MaxFPS > maxFPSLimit {
		add("ui.max_fps", "must be between 1 and %d", maxFPSLimit)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		add("log.level", "must be debug, info, warn or error, got %q", c.Log.Level)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - STREAMCHAT_BACKEND: overrides backend
//   - STREAMCHAT_HOST: overrides remote.host
//   - STREAMCHAT_MODEL: overrides remote.model
func (c *Config) ApplyEnvOverrides() {
	if backend := os.Getenv("STREAMCHAT_BACKEND"); backend != "" {
		c.Backend = strings.ToLower(backend)
	}
	if host := os.Getenv("STREAMCHAT_HOST"); host != "" {
		c.Remote.Host = host
	}
	if model := os.Getenv("STREAMCHAT_MODEL"); model != "" {
		c.Remote.Model = model
	}
}

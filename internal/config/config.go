// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete readmark bootstrap configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// DataDir is the application data directory. Empty means ~/.readmark.
	DataDir string `toml:"data_dir" json:"data_dir"`

	Log    LogConfig    `toml:"log" json:"log"`
	Server ServerConfig `toml:"server" json:"server"`
	Watch  WatchConfig  `toml:"watch" json:"watch"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `toml:"level" json:"level"`

	// Format is "console" for human-readable output or "json".
	Format string `toml:"format" json:"format"`
}

// ServerConfig contains model-server connection configuration. These are
// process-level defaults; a successful connection test persists the working
// values into the application state document.
type ServerConfig struct {
	Endpoint string `toml:"endpoint" json:"endpoint"`

	// APIKey is sent as a bearer token. LM Studio accepts any value.
	APIKey string `toml:"api_key" json:"api_key"`

	// DefaultModel seeds the client before any model is selected. Empty
	// lets the server pick its loaded model.
	DefaultModel string `toml:"default_model" json:"default_model"`

	// ConnectTimeoutSecs bounds TCP dialing.
	ConnectTimeoutSecs int `toml:"connect_timeout_secs" json:"connect_timeout_secs"`

	// RequestTimeoutSecs bounds one whole completion request. Local
	// inference on large models is slow; keep this generous.
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`

	// RequestsPerSecond caps the request rate against the server.
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// WatchConfig controls the optional data-directory watcher.
type WatchConfig struct {
	// Enabled turns on reloading of state edited outside the process.
	Enabled bool `toml:"enabled" json:"enabled"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Endpoint:           "http://127.0.0.1:1234",
			APIKey:             "lm-studio",
			ConnectTimeoutSecs: 30,
			RequestTimeoutSecs: 300,
			RequestsPerSecond:  5,
		},
		Watch: WatchConfig{
			Enabled: false,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the readmark configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".readmark"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "readmark.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "readmark.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				return nil, fmt.Errorf("failed to load TOML config: %w", err)
			}
			return finish(cfg)
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				return nil, fmt.Errorf("failed to load JSON config: %w", err)
			}
			return finish(cfg)
		}
	}

	return finish(cfg)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. JSON is selected by file extension; anything else is TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finish(cfg)
}

// finish applies env overrides, fills defaults, and validates.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
// SECURITY: Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// fillDefaults fills in any missing values with defaults.
func (c *Config) fillDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Server.Endpoint == "" {
		c.Server.Endpoint = d.Server.Endpoint
	}
	if c.Server.APIKey == "" {
		c.Server.APIKey = d.Server.APIKey
	}
	if c.Server.ConnectTimeoutSecs == 0 {
		c.Server.ConnectTimeoutSecs = d.Server.ConnectTimeoutSecs
	}
	if c.Server.RequestTimeoutSecs == 0 {
		c.Server.RequestTimeoutSecs = d.Server.RequestTimeoutSecs
	}
	if c.Server.RequestsPerSecond == 0 {
		c.Server.RequestsPerSecond = d.Server.RequestsPerSecond
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with owner-only
// permissions.
func SaveTOML(cfg *Config, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode TOML: %w", err)
	}
	return nil
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

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate validates the configuration and returns the first error found.
func (c *Config) Validate() error {
	if !validLogLevels[c.Log.Level] {
		return ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level)}
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return ValidationError{Field: "log.format", Message: fmt.Sprintf("must be 'console' or 'json', got %q", c.Log.Format)}
	}

	u, err := url.Parse(c.Server.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ValidationError{Field: "server.endpoint", Message: fmt.Sprintf("not a valid URL: %q", c.Server.Endpoint)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ValidationError{Field: "server.endpoint", Message: fmt.Sprintf("scheme must be http or https, got %q", u.Scheme)}
	}

	if c.Server.ConnectTimeoutSecs < 1 {
		return ValidationError{Field: "server.connect_timeout_secs", Message: "must be at least 1"}
	}
	if c.Server.RequestTimeoutSecs < 1 {
		return ValidationError{Field: "server.request_timeout_secs", Message: "must be at least 1"}
	}
	if c.Server.RequestsPerSecond <= 0 {
		return ValidationError{Field: "server.requests_per_second", Message: "must be positive"}
	}

	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - READMARK_DATA_DIR: overrides data_dir
//   - READMARK_ENDPOINT: overrides server.endpoint
//   - READMARK_API_KEY: overrides server.api_key
//   - READMARK_MODEL: overrides server.default_model
//   - READMARK_LOG_LEVEL: overrides log.level
//   - READMARK_LOG_FORMAT: overrides log.format
//   - READMARK_WATCH: set to "1" or "true" to enable the data watcher
//   - READMARK_REQUEST_TIMEOUT_SECS: overrides server.request_timeout_secs
func (c *Config) ApplyEnvOverrides() {
	if dir := os.Getenv("READMARK_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if endpoint := os.Getenv("READMARK_ENDPOINT"); endpoint != "" {
		c.Server.Endpoint = endpoint
	}
	if key := os.Getenv("READMARK_API_KEY"); key != "" {
		c.Server.APIKey = key
	}
	if name := os.Getenv("READMARK_MODEL"); name != "" {
		c.Server.DefaultModel = name
	}
	if level := os.Getenv("READMARK_LOG_LEVEL"); level != "" {
		c.Log.Level = strings.ToLower(level)
	}
	if format := os.Getenv("READMARK_LOG_FORMAT"); format != "" {
		c.Log.Format = strings.ToLower(format)
	}
	if watch := os.Getenv("READMARK_WATCH"); watch != "" {
		c.Watch.Enabled = watch == "1" || strings.EqualFold(watch, "true")
	}
	if secs := os.Getenv("READMARK_REQUEST_TIMEOUT_SECS"); secs != "" {
		if n, err := strconv.Atoi(secs); err == nil && n > 0 {
			c.Server.RequestTimeoutSecs = n
		}
	}
}

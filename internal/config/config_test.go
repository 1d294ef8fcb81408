// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if cfg.Server.Endpoint != "http://127.0.0.1:1234" {
		t.Errorf("Endpoint = %q", cfg.Server.Endpoint)
	}
	if cfg.Server.RequestTimeoutSecs != 300 {
		t.Errorf("RequestTimeoutSecs = %d, want 300", cfg.Server.RequestTimeoutSecs)
	}
}

func TestLoadFromPath_TOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readmark.toml")

	cfg := Default()
	cfg.Server.Endpoint = "http://192.168.1.20:1234"
	cfg.Log.Level = "debug"
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if loaded.Server.Endpoint != "http://192.168.1.20:1234" {
		t.Errorf("Endpoint = %q", loaded.Server.Endpoint)
	}
	if loaded.Log.Level != "debug" {
		t.Errorf("Level = %q", loaded.Log.Level)
	}

	// SECURITY: saved file must be owner-only
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %o, want 0600", info.Mode().Perm())
	}
}

func TestLoadFromPath_PartialTOMLFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readmark.toml")
	partial := "[server]\nendpoint = \"http://10.0.0.2:1234\"\n"
	if err := os.WriteFile(path, []byte(partial), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Server.Endpoint != "http://10.0.0.2:1234" {
		t.Errorf("Endpoint = %q", cfg.Server.Endpoint)
	}
	// Unset fields come from defaults.
	if cfg.Server.APIKey != "lm-studio" {
		t.Errorf("APIKey = %q, want default", cfg.Server.APIKey)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Level = %q, want default", cfg.Log.Level)
	}
	if cfg.Server.RequestsPerSecond != 5 {
		t.Errorf("RequestsPerSecond = %v, want default", cfg.Server.RequestsPerSecond)
	}
}

func TestLoadFromPath_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readmark.json")
	doc := `{"server": {"endpoint": "http://10.1.1.1:1234", "api_key": "k"}}`
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Server.Endpoint != "http://10.1.1.1:1234" || cfg.Server.APIKey != "k" {
		t.Errorf("server = %+v", cfg.Server)
	}
}

func TestLoadFromPath_MalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readmark.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := LoadFromPath(path); err == nil {
		t.Error("expected error for malformed TOML")
	}
}

func TestLoadTOML_FixesInsecurePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readmark.toml")
	if err := os.WriteFile(path, []byte("version = \"1.0.0\"\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		t.Fatalf("LoadTOML failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %o, want 0600 after load", info.Mode().Perm())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid default", func(c *Config) {}, false},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"empty endpoint", func(c *Config) { c.Server.Endpoint = "" }, true},
		{"bad endpoint scheme", func(c *Config) { c.Server.Endpoint = "ftp://host:21" }, true},
		{"https endpoint", func(c *Config) { c.Server.Endpoint = "https://example.com" }, false},
		{"zero request timeout", func(c *Config) { c.Server.RequestTimeoutSecs = 0 }, true},
		{"negative rate", func(c *Config) { c.Server.RequestsPerSecond = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("READMARK_ENDPOINT", "http://10.2.2.2:1234")
	t.Setenv("READMARK_API_KEY", "env-key")
	t.Setenv("READMARK_MODEL", "qwen2.5-7b-instruct")
	t.Setenv("READMARK_LOG_LEVEL", "DEBUG")
	t.Setenv("READMARK_WATCH", "true")
	t.Setenv("READMARK_DATA_DIR", "/tmp/rm-data")
	t.Setenv("READMARK_REQUEST_TIMEOUT_SECS", "120")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Server.Endpoint != "http://10.2.2.2:1234" {
		t.Errorf("Endpoint = %q", cfg.Server.Endpoint)
	}
	if cfg.Server.APIKey != "env-key" {
		t.Errorf("APIKey = %q", cfg.Server.APIKey)
	}
	if cfg.Server.DefaultModel != "qwen2.5-7b-instruct" {
		t.Errorf("DefaultModel = %q", cfg.Server.DefaultModel)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want lowered", cfg.Log.Level)
	}
	if !cfg.Watch.Enabled {
		t.Error("Watch.Enabled = false")
	}
	if cfg.DataDir != "/tmp/rm-data" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Server.RequestTimeoutSecs != 120 {
		t.Errorf("RequestTimeoutSecs = %d", cfg.Server.RequestTimeoutSecs)
	}
}

func TestApplyEnvOverrides_BadTimeoutIgnored(t *testing.T) {
	t.Setenv("READMARK_REQUEST_TIMEOUT_SECS", "not-a-number")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if cfg.Server.RequestTimeoutSecs != 300 {
		t.Errorf("RequestTimeoutSecs = %d, want default kept", cfg.Server.RequestTimeoutSecs)
	}
}

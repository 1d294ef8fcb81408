// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides bootstrap configuration loading for readmark.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation. This is the process-level
// configuration (data directory, logging, model-server connection
// parameters); the application's own state document lives inside the data
// directory and is managed by the storage package.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (READMARK_*)
//   - ~/.readmark/readmark.toml
//   - ~/.readmark/readmark.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"time"

	"github.com/jeranaias/readmark/internal/model"
)

// =============================================================================
// CONFIGURATION DOCUMENT
// =============================================================================

// GetConfig loads the configuration document. When no document exists the
// default configuration is persisted and returned; a corrupt document
// degrades to the default without persisting over it.
func (s *Store) GetConfig() model.AppConfig {
	cfg := model.DefaultAppConfig()
	if s.readDocument(configFile, &cfg) {
		return cfg
	}
	// Seed the default only on first access. A corrupt document stays on
	// disk untouched for the user to repair; overwriting it here would
	// destroy the endpoint and API key over a transient bad edit.
	if !s.documentExists(configFile) {
		s.saveConfig(model.DefaultAppConfig())
	}
	return model.DefaultAppConfig()
}

// UpdateConfig applies a shallow key-based merge onto the current
// configuration and persists the result. Unknown keys are ignored, never
// errors. app.lastUsed is stamped on every write.
func (s *Store) UpdateConfig(updates map[string]interface{}) bool {
	cfg := s.GetConfig()
	applyConfigUpdates(&cfg, updates)
	cfg.App.LastUsed = time.Now().Format(time.RFC3339Nano)
	return s.saveConfig(cfg)
}

func (s *Store) saveConfig(cfg model.AppConfig) bool {
	// SECURITY: 0600 - the document holds the API key.
	return s.writeDocument(configFile, cfg, 0600)
}

// applyConfigUpdates merges recognized keys into cfg. Numeric values arrive
// as float64 when the patch came through JSON, so both forms are accepted.
func applyConfigUpdates(cfg *model.AppConfig, updates map[string]interface{}) {
	for key, value := range updates {
		switch key {
		case "endpoint":
			if v, ok := value.(string); ok {
				cfg.LMStudio.Endpoint = v
			}
		case "apiKey":
			if v, ok := value.(string); ok {
				cfg.LMStudio.APIKey = v
			}
		case "selectedModel":
			if v, ok := value.(string); ok {
				cfg.LMStudio.SelectedModel = v
			}
		case "lastWorkingModel":
			if v, ok := value.(string); ok {
				cfg.LMStudio.LastWorkingModel = v
			}
		case "temperature":
			if v, ok := toFloat(value); ok {
				cfg.LMStudio.Temperature = v
			}
		case "maxTokens":
			if v, ok := toFloat(value); ok {
				cfg.LMStudio.MaxTokens = int(v)
			}
		case "saveToExternal":
			if v, ok := value.(bool); ok {
				cfg.NoteSave.SaveToExternal = v
			}
		case "externalPath":
			if v, ok := value.(string); ok {
				cfg.NoteSave.ExternalPath = v
			}
		case "defaultFileName":
			if v, ok := value.(string); ok {
				cfg.NoteSave.DefaultFileName = v
			}
		case "version":
			if v, ok := value.(string); ok {
				cfg.App.Version = v
			}
		case "lastUsed":
			if v, ok := value.(string); ok {
				cfg.App.LastUsed = v
			}
		}
	}
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// CONFIGURATION DOCUMENT
// =============================================================================

// LMStudioConfig holds the model-server connection settings.
type LMStudioConfig struct {
	Endpoint         string  `json:"endpoint"`
	APIKey           string  `json:"apiKey"`
	SelectedModel    string  `json:"selectedModel"`
	LastWorkingModel string  `json:"lastWorkingModel,omitempty"`
	Temperature      float64 `json:"temperature"`
	MaxTokens        int     `json:"maxTokens"`
}

// NoteSaveConfig holds note-saving preferences.
type NoteSaveConfig struct {
	SaveToExternal  bool   `json:"saveToExternal"`
	ExternalPath    string `json:"externalPath"`
	DefaultFileName string `json:"defaultFileName"`
}

// AppInfo holds app-level metadata. LastUsed reflects the most recent
// successful configuration write.
type AppInfo struct {
	Version  string `json:"version"`
	LastUsed string `json:"lastUsed,omitempty"`
}

// AppConfig is the single configuration document, upsert-merged
// field-by-field by the store.
type AppConfig struct {
	LMStudio LMStudioConfig `json:"lmStudio"`
	NoteSave NoteSaveConfig `json:"noteSave"`
	App      AppInfo        `json:"app"`
}

// DefaultAppConfig returns the configuration used when no document exists.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		LMStudio: LMStudioConfig{
			Endpoint:    "http://127.0.0.1:1234",
			APIKey:      "lm-studio",
			Temperature: 0.7,
			MaxTokens:   1000,
		},
		NoteSave: NoteSaveConfig{
			DefaultFileName: "note",
		},
		App: AppInfo{
			Version: "1.0.0",
		},
	}
}

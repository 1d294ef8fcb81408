// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/readmark/internal/util"
)

// =============================================================================
// NOTE FILES
// =============================================================================

// SaveNote writes content as a UTF-8 markdown file named from the sanitized
// title plus a timestamp. The note goes to externalPath when requested
// (created if absent), otherwise to the app-private notes directory.
//
// This is the one store operation that propagates an error: note saving is
// a deliberate user action and its failure must be visible.
func (s *Store) SaveNote(content, title string, saveToExternal bool, externalPath string) (string, error) {
	// Timestamp with ':' and '.' replaced for filesystem safety.
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	timestamp = strings.ReplaceAll(timestamp, ":", "-")
	timestamp = strings.ReplaceAll(timestamp, ".", "-")

	noteTitle := "note"
	if strings.TrimSpace(title) != "" {
		noteTitle = util.SanitizeFileName(title)
	}

	dir := s.notesDir
	if saveToExternal && externalPath != "" {
		if err := os.MkdirAll(externalPath, 0755); err != nil {
			return "", fmt.Errorf("failed to create external notes directory: %w", err)
		}
		dir = externalPath
	}

	filename := fmt.Sprintf("%s_%s.md", noteTitle, timestamp)
	path := filepath.Join(dir, filename)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write note: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	s.log.Info().Str("path", absPath).Msg("note saved")
	return absPath, nil
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/jeranaias/readmark/internal/util"
)

// =============================================================================
// STORE
// =============================================================================

const (
	configFile       = "config.json"
	historyFile      = "history.json"
	historyItemsFile = "history_items.json"
	notesDirName     = "notes"

	// MaxHistoryItems caps the history-item list; the oldest entries are
	// evicted first.
	MaxHistoryItems = 100
)

// Store persists readmark's JSON documents under a single data directory.
//
// Operations are whole-file read/modify/write with no locking; callers must
// serialize access to a given Store instance.
type Store struct {
	baseDir  string
	notesDir string
	log      zerolog.Logger
}

// NewStore creates a store rooted at baseDir, creating the directory tree
// if needed.
func NewStore(baseDir string, log zerolog.Logger) (*Store, error) {
	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		baseDir = filepath.Join(homeDir, ".readmark")
	}

	notesDir := filepath.Join(baseDir, notesDirName)
	if err := os.MkdirAll(notesDir, 0755); err != nil {
		return nil, err
	}

	return &Store{
		baseDir:  baseDir,
		notesDir: notesDir,
		log:      log.With().Str("component", "storage").Logger(),
	}, nil
}

// BaseDir returns the data directory the store is rooted at.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// =============================================================================
// DOCUMENT HELPERS
// =============================================================================

// readDocument loads a JSON document into out. Returns false when the file
// is absent or unreadable; out is left untouched in that case so callers
// keep their defaults.
func (s *Store) readDocument(name string, out interface{}) bool {
	path := filepath.Join(s.baseDir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("file", name).Msg("failed to read document")
		}
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		s.log.Warn().Err(err).Str("file", name).Msg("corrupt document, using defaults")
		return false
	}
	return true
}

// documentExists reports whether the named document is present on disk,
// readable or not.
func (s *Store) documentExists(name string) bool {
	_, err := os.Stat(filepath.Join(s.baseDir, name))
	return err == nil
}

// writeDocument persists a JSON document atomically.
func (s *Store) writeDocument(name string, doc interface{}, perm os.FileMode) bool {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		s.log.Error().Err(err).Str("file", name).Msg("failed to encode document")
		return false
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	path := filepath.Join(s.baseDir, name)
	if err := util.AtomicWriteFile(path, data, perm); err != nil {
		s.log.Error().Err(err).Str("file", name).Msg("failed to write document")
		return false
	}
	return true
}

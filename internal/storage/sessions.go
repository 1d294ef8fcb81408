// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jeranaias/readmark/internal/model"
	"github.com/jeranaias/readmark/internal/util"
)

// =============================================================================
// SESSION HISTORY DOCUMENT
// =============================================================================

// historyData is the on-disk shape of history.json: the append-only session
// list plus the statistics derived from it.
type historyData struct {
	Sessions   []model.SessionRecord `json:"sessions"`
	Statistics model.Statistics      `json:"statistics"`
}

func (s *Store) loadHistory() historyData {
	var h historyData
	s.readDocument(historyFile, &h)
	return h
}

func (s *Store) saveHistory(h historyData) bool {
	return s.writeDocument(historyFile, h, 0644)
}

// AddSessionRecord appends a session record, recomputes statistics from the
// full list, and persists both.
func (s *Store) AddSessionRecord(record model.SessionRecord) bool {
	h := s.loadHistory()
	h.Sessions = append(h.Sessions, record)
	// Full recompute rather than incremental counters: the document may
	// have been edited externally between writes.
	h.Statistics = calculateStatistics(h.Sessions)
	return s.saveHistory(h)
}

// GetStatistics returns the statistics stored with the session history.
func (s *Store) GetStatistics() model.Statistics {
	return s.loadHistory().Statistics
}

// GetRecentSessions returns up to limit sessions sorted most-recent first.
// Equal timestamps keep their original insertion order.
func (s *Store) GetRecentSessions(limit int) []model.SessionRecord {
	if limit <= 0 {
		limit = 10
	}

	sessions := append([]model.SessionRecord(nil), s.loadHistory().Sessions...)
	sort.SliceStable(sessions, func(i, j int) bool {
		ti, errI := time.Parse(time.RFC3339Nano, sessions[i].Timestamp)
		tj, errJ := time.Parse(time.RFC3339Nano, sessions[j].Timestamp)
		if errI != nil || errJ != nil {
			// Externally edited timestamps may not parse; fall back to
			// string order.
			return sessions[i].Timestamp > sessions[j].Timestamp
		}
		return ti.After(tj)
	})

	if len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions
}

func calculateStatistics(sessions []model.SessionRecord) model.Statistics {
	summaries := 0
	for _, sess := range sessions {
		if sess.Mode == "summary" {
			summaries++
		}
	}
	return model.Statistics{
		TotalSessions:    len(sessions),
		PagesProcessed:   len(sessions), // each session processes one page
		SummariesCreated: summaries,
	}
}

// =============================================================================
// READING POSITIONS
// =============================================================================

// FindReadingPosition scans continue_reading sessions for a case-insensitive
// substring match between the stored title and the query, in either
// direction. Returns nil when nothing matches.
func (s *Store) FindReadingPosition(title, contentSnippet string) *model.ReadingPosition {
	for _, sess := range s.loadHistory().Sessions {
		if sess.Mode != "continue_reading" {
			continue
		}
		if !containsFold(sess.Title, title) && !containsFold(contentSnippet, sess.Title) {
			continue
		}

		posTitle := sess.Title
		if posTitle == "" {
			posTitle = title
		}
		return &model.ReadingPosition{
			Title:          posTitle,
			PageInfo:       "저장된 위치",
			AnchorSentence: util.TakeRunes(contentSnippet, 200),
			LastAccessed:   sess.Timestamp,
		}
	}
	return nil
}

// SaveReadingPosition synthesizes a continue_reading session record and
// appends it to the history.
func (s *Store) SaveReadingPosition(title, pageInfo, anchorSentence, link string) bool {
	record := model.SessionRecord{
		SessionID:   fmt.Sprintf("reading_%d", time.Now().UnixMilli()),
		Mode:        "continue_reading",
		Timestamp:   time.Now().Format(time.RFC3339Nano),
		InputLength: utf8.RuneCountInString(anchorSentence),
		Title:       title,
	}
	return s.AddSessionRecord(record)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// SESSION RECORD
// =============================================================================

// SessionRecord is an immutable log entry of one completed processing
// action. Sessions are append-only; statistics derive from the full list.
type SessionRecord struct {
	SessionID   string   `json:"sessionId"`
	Mode        string   `json:"mode"` // "summary", "continue_reading", "auto_detect"
	Timestamp   string   `json:"timestamp"`
	InputLength int      `json:"inputLength"`
	Title       string   `json:"title,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	TokensUsed  int      `json:"tokensUsed"`
	HasBookmark *bool    `json:"hasBookmark,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
}

// Statistics is derived from the session list on every append rather than
// maintained incrementally, so it stays correct even after external edits
// to the history file.
type Statistics struct {
	TotalSessions    int `json:"totalSessions"`
	PagesProcessed   int `json:"pagesProcessed"`
	SummariesCreated int `json:"summariesCreated"`
}

// =============================================================================
// HISTORY ITEM
// =============================================================================

// HistoryItem is the richer, user-browsable log entry retaining the full
// input and output text, independent of SessionRecords.
type HistoryItem struct {
	ID         string `json:"id"`
	Timestamp  string `json:"timestamp"`
	InputText  string `json:"inputText"`
	Result     string `json:"result"`
	Mode       string `json:"mode"`
	TokensUsed int    `json:"tokensUsed"`
	ModelUsed  string `json:"modelUsed"`
}

// =============================================================================
// READING POSITION
// =============================================================================

// ReadingPosition is a resolved continue-reading anchor.
type ReadingPosition struct {
	Title          string `json:"title"`
	PageInfo       string `json:"pageInfo"`
	AnchorSentence string `json:"anchorSentence"`
	LastAccessed   string `json:"lastAccessed"`
	Link           string `json:"link,omitempty"`
}

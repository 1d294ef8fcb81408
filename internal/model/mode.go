// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// =============================================================================
// WORK MODE
// =============================================================================

// Mode is the task type applied to user text: summarize, locate a prior
// reading position, or auto-detect between the two.
type Mode int

const (
	ModeAutoDetect Mode = iota
	ModeSummary
	ModeContinueReading
)

// String returns the persisted wire form of the mode.
func (m Mode) String() string {
	switch m {
	case ModeSummary:
		return "summary"
	case ModeContinueReading:
		return "continue_reading"
	default:
		return "auto_detect"
	}
}

// ModeFromString parses a persisted or user-supplied mode name.
// Unknown values fall back to auto-detect.
func ModeFromString(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "summary":
		return ModeSummary
	case "continue_reading", "continue":
		return ModeContinueReading
	case "auto_detect", "auto":
		return ModeAutoDetect
	default:
		return ModeAutoDetect
	}
}

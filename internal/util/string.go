// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"
	"unicode"
)

// =============================================================================
// STRING HELPERS
// =============================================================================

// Truncate shortens s to maxLen runes, appending "..." if truncated.
// Rune-based so multi-byte text (Korean input is common here) is never cut
// mid-character.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// TakeRunes returns at most n leading runes of s.
func TakeRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// SanitizeFileName replaces every character that is not an ASCII
// alphanumeric, Hangul, or whitespace with '_', making a title safe to use
// as a filename on any filesystem.
func SanitizeFileName(title string) string {
	var sb strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case unicode.Is(unicode.Hangul, r):
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lmstudio

import (
	"errors"
	"strings"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the LM Studio client.
type ClientError struct {
	Type       ErrorType
	Message    string
	Suggestion string
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeTimeout
	ErrTypeConnection
	ErrTypeAPI
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrTimeout       = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrEmptyResponse = &ClientError{Type: ErrTypeInvalidResponse, Message: "빈 응답"}
)

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return errors.Is(err, ErrTimeout)
}

// IsAPIError checks if an error is a model-server API failure.
func IsAPIError(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeAPI
	}
	return false
}

// ErrorSuggestion extracts the remediation suggestion from a client error,
// or "" when the error carries none.
func ErrorSuggestion(err error) string {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Suggestion
	}
	return ""
}

// SuggestionForNetworkError classifies a transport-level error message into
// a Korean remediation suggestion by substring matching.
func SuggestionForNetworkError(errText string) string {
	lower := strings.ToLower(errText)
	switch {
	case strings.Contains(lower, "timeout"):
		return "서버 응답 시간이 초과되었습니다. 네트워크를 확인하세요."
	case strings.Contains(lower, "refused"):
		return "연결이 거부되었습니다. LM Studio가 실행 중인지 확인하세요."
	case strings.Contains(lower, "host"):
		return "호스트를 찾을 수 없습니다. IP 주소를 확인하세요."
	default:
		return "네트워크 연결 상태를 확인하세요."
	}
}

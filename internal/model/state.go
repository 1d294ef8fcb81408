// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

// ErrorType classifies a processing failure for user-facing handling.
type ErrorType string

const (
	// ErrorValidation means the input failed local constraints and never
	// reached the network.
	ErrorValidation ErrorType = "validation"

	// ErrorConnection means the connection precondition was not met.
	ErrorConnection ErrorType = "connection"

	// ErrorAPI means the model server returned a failure or a malformed
	// response.
	ErrorAPI ErrorType = "api"

	// ErrorNetwork means a transport-level failure occurred.
	ErrorNetwork ErrorType = "network"

	// ErrorUnknown is the catch-all for unexpected failures.
	ErrorUnknown ErrorType = "unknown"
)

// =============================================================================
// CONNECTION STATE
// =============================================================================

// ConnPhase is the discriminator for ConnectionState.
type ConnPhase int

const (
	ConnDisconnected ConnPhase = iota
	ConnConnecting
	ConnConnected
	ConnError
)

// ConnectionState is the orchestrator's ephemeral view of the model server
// link. Only the fields relevant to the current phase are populated.
type ConnectionState struct {
	Phase      ConnPhase
	Models     []string
	Message    string
	Suggestion string
}

// Disconnected returns the initial connection state.
func Disconnected() ConnectionState {
	return ConnectionState{Phase: ConnDisconnected}
}

// Connecting returns the in-progress connection state.
func Connecting() ConnectionState {
	return ConnectionState{Phase: ConnConnecting}
}

// Connected returns a successful connection state with the discovered models.
func Connected(models []string, message string) ConnectionState {
	return ConnectionState{Phase: ConnConnected, Models: models, Message: message}
}

// ConnFailed returns a failed connection state with remediation guidance.
func ConnFailed(message, suggestion string) ConnectionState {
	return ConnectionState{Phase: ConnError, Message: message, Suggestion: suggestion}
}

// IsConnected reports whether a processing request may proceed.
func (s ConnectionState) IsConnected() bool {
	return s.Phase == ConnConnected
}

// =============================================================================
// PROCESSING RESULT
// =============================================================================

// ResultPhase is the discriminator for ProcessingResult.
type ResultPhase int

const (
	ResultIdle ResultPhase = iota
	ResultLoading
	ResultSuccess
	ResultError
)

// ProcessingMetadata carries request accounting for a successful result.
type ProcessingMetadata struct {
	TokensUsed       int
	ProcessingTimeMs int64
	ModelUsed        string
}

// ProcessingResult is the orchestrator's ephemeral outcome of one request.
type ProcessingResult struct {
	Phase      ResultPhase
	Message    string
	Content    string
	Mode       Mode
	Metadata   ProcessingMetadata
	ErrorType  ErrorType
	Suggestion string
}

// Idle returns the empty result.
func Idle() ProcessingResult {
	return ProcessingResult{Phase: ResultIdle}
}

// Loading returns an in-progress result with a status message.
func Loading(message string) ProcessingResult {
	return ProcessingResult{Phase: ResultLoading, Message: message}
}

// Success returns a completed result.
func Success(content string, mode Mode, meta ProcessingMetadata) ProcessingResult {
	return ProcessingResult{Phase: ResultSuccess, Content: content, Mode: mode, Metadata: meta}
}

// Failure returns a failed result with its classification.
func Failure(message string, errType ErrorType, suggestion string) ProcessingResult {
	return ProcessingResult{Phase: ResultError, Message: message, ErrorType: errType, Suggestion: suggestion}
}

// =============================================================================
// CONNECTION TEST RESULT
// =============================================================================

// ConnectionResult is the client-level outcome of a connection test.
type ConnectionResult struct {
	Success    bool
	Message    string
	Models     []string
	Suggestion string
}

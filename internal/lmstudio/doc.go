// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package lmstudio provides the HTTP client for communicating with an
// LM Studio (OpenAI-compatible) model server.
//
// The client speaks the /v1/models and /v1/chat/completions endpoints with
// bearer authentication. User-facing messages and remediation suggestions
// are Korean, matching the application's audience.
package lmstudio

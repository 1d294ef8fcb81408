// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant orchestrates the reading-assistant workflow: connection
// management, text processing through the model server, and persistence of
// sessions, history, and notes.
//
// The Orchestrator owns the observable application state (connection state,
// processing result, statistics, configuration, history) behind a mutex and
// publishes change events through an optional callback. Every public entry
// point guarantees a terminal Error result on unexpected failure rather
// than panicking past the boundary.
package assistant

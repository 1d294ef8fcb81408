// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the interactive REPL for readmark.
//
// The REPL is a thin layer over the assistant orchestrator: slash commands
// manage the connection, mode, configuration, notes, and history; bare text
// is sent straight to text processing. Line editing and input history come
// from liner.
package cli

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local JSON-document store for readmark:
// the configuration document, session history with derived statistics, the
// capped history-item list, and note files.
//
// Read paths never fail: an absent, corrupt, or unreadable document
// degrades to a default value and is logged. Write paths report success as
// a boolean; only note saving surfaces an error, since it is a deliberate
// user action whose failure must be visible.
package storage

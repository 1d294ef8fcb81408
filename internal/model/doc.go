// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the domain types shared across readmark: work
// modes, connection and processing state, persisted records, and the
// configuration document.
package model

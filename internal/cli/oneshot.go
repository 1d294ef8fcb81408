// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/readmark/internal/assistant"
	"github.com/jeranaias/readmark/internal/model"
)

// RunOnce processes a single text without entering the REPL, for scripted
// use. It connects with the persisted (or configured) endpoint, runs one
// request, and writes only the result content to out.
func RunOnce(ctx context.Context, orch *assistant.Orchestrator, out io.Writer, text string, mode model.Mode) error {
	orch.TestConnection(ctx, "", "")
	state := orch.ConnectionState()
	if !state.IsConnected() {
		return errors.New(strings.TrimSpace(state.Message + " " + state.Suggestion))
	}

	orch.ProcessText(ctx, text, mode)
	result := orch.Result()
	if result.Phase != model.ResultSuccess {
		msg := result.Message
		if result.Suggestion != "" {
			msg += " (" + result.Suggestion + ")"
		}
		return errors.New(msg)
	}

	fmt.Fprintln(out, result.Content)
	return nil
}

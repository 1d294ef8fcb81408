// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jeranaias/readmark/internal/assistant"
	"github.com/jeranaias/readmark/internal/lmstudio"
	"github.com/jeranaias/readmark/internal/model"
	"github.com/jeranaias/readmark/internal/storage"
)

// stubClient is a canned-response model client for one-shot tests.
type stubClient struct {
	connResult model.ConnectionResult
	resp       *lmstudio.CompletionResponse
	err        error
}

func (c *stubClient) TestConnection(ctx context.Context, endpoint, apiKey string) model.ConnectionResult {
	return c.connResult
}

func (c *stubClient) SetModel(name string) {}
func (c *stubClient) CurrentModel() string { return "" }

func (c *stubClient) GenerateSummary(ctx context.Context, text string, temperature float64, maxTokens int, modelName string) (*lmstudio.CompletionResponse, error) {
	return c.resp, c.err
}

func (c *stubClient) FindBookmark(ctx context.Context, text string, modelName string) (*lmstudio.CompletionResponse, error) {
	return c.resp, c.err
}

func (c *stubClient) AutoProcess(ctx context.Context, text string, modelName string) (*lmstudio.CompletionResponse, error) {
	return c.resp, c.err
}

func newOneShotOrchestrator(t *testing.T, client *stubClient) *assistant.Orchestrator {
	t.Helper()
	store, err := storage.NewStore(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return assistant.New(client, store, zerolog.Nop())
}

func TestRunOnce_NotConnected(t *testing.T) {
	client := &stubClient{
		connResult: model.ConnectionResult{
			Success:    false,
			Message:    "연결 실패",
			Suggestion: "연결이 거부되었습니다. LM Studio가 실행 중인지 확인하세요.",
		},
	}
	orch := newOneShotOrchestrator(t, client)
	out := &bytes.Buffer{}

	err := RunOnce(context.Background(), orch, out, "충분히 긴 입력 텍스트입니다", model.ModeSummary)
	if err == nil {
		t.Fatal("RunOnce succeeded, want connection error")
	}
	if !strings.Contains(err.Error(), "연결 실패") {
		t.Errorf("error = %q, want connection message", err)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want nothing on failure", out.String())
	}
}

func TestRunOnce_Success(t *testing.T) {
	client := &stubClient{
		connResult: model.ConnectionResult{
			Success: true,
			Message: "연결 성공! 1개의 모델을 사용할 수 있습니다.",
			Models:  []string{"qwen2.5-7b-instruct"},
		},
		resp: &lmstudio.CompletionResponse{
			Choices: []lmstudio.Choice{{Message: lmstudio.Message{Content: "핵심 요약입니다."}}},
		},
	}
	orch := newOneShotOrchestrator(t, client)
	out := &bytes.Buffer{}

	err := RunOnce(context.Background(), orch, out, "오늘 읽은 장에서 주인공은 먼 길을 떠났다", model.ModeSummary)
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if got := out.String(); got != "핵심 요약입니다.\n" {
		t.Errorf("output = %q, want result content only", got)
	}
}

func TestRunOnce_ProcessingError(t *testing.T) {
	client := &stubClient{
		connResult: model.ConnectionResult{Success: true, Models: []string{"m"}},
		err: &lmstudio.ClientError{
			Type:       lmstudio.ErrTypeConnection,
			Message:    "연결 실패",
			Suggestion: "네트워크 연결 상태를 확인하세요.",
		},
	}
	orch := newOneShotOrchestrator(t, client)
	out := &bytes.Buffer{}

	err := RunOnce(context.Background(), orch, out, "충분히 긴 입력 텍스트입니다", model.ModeSummary)
	if err == nil {
		t.Fatal("RunOnce succeeded, want processing error")
	}
	if !strings.Contains(err.Error(), "네트워크 연결 상태를 확인하세요.") {
		t.Errorf("error = %q, want suggestion included", err)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want nothing on failure", out.String())
	}
}

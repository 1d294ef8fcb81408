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

// newTestREPL builds a REPL without a terminal; command handlers never touch
// the liner state.
func newTestREPL(t *testing.T) (*REPL, *bytes.Buffer) {
	t.Helper()
	store, err := storage.NewStore(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	orch := assistant.New(lmstudio.NewClient(zerolog.Nop()), store, zerolog.Nop())
	out := &bytes.Buffer{}
	return &REPL{orch: orch, out: out, mode: model.ModeAutoDetect}, out
}

func TestHandleMode(t *testing.T) {
	r, out := newTestREPL(t)

	r.handleMode([]string{"summary"})
	if r.mode != model.ModeSummary {
		t.Errorf("mode = %v, want summary", r.mode)
	}
	if !strings.Contains(out.String(), "summary") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	r.handleMode([]string{"continue"})
	if r.mode != model.ModeContinueReading {
		t.Errorf("mode = %v, want continue_reading", r.mode)
	}

	out.Reset()
	r.handleMode(nil)
	if !strings.Contains(out.String(), "continue_reading") {
		t.Errorf("output = %q, want current mode shown", out.String())
	}
}

func TestHandleConfig_SetAndShow(t *testing.T) {
	r, out := newTestREPL(t)

	r.handleConfig([]string{"temperature", "0.3"})
	if got := r.orch.Config().LMStudio.Temperature; got != 0.3 {
		t.Errorf("Temperature = %v, want 0.3", got)
	}

	out.Reset()
	r.handleConfig(nil)
	display := out.String()
	if !strings.Contains(display, "temperature:   0.3") {
		t.Errorf("display = %q", display)
	}
	if !strings.Contains(display, "endpoint:      http://127.0.0.1:1234") {
		t.Errorf("display = %q", display)
	}
}

func TestHandleHistory_Empty(t *testing.T) {
	r, out := newTestREPL(t)

	r.handleHistory(nil)
	if !strings.Contains(out.String(), "히스토리가 비어 있습니다") {
		t.Errorf("output = %q", out.String())
	}
}

func TestHandleNote_NoResult(t *testing.T) {
	r, out := newTestREPL(t)

	r.handleNote([]string{"제목"})
	if !strings.Contains(out.String(), "저장할 결과가 없습니다") {
		t.Errorf("output = %q", out.String())
	}
}

func TestPrintResult(t *testing.T) {
	r, out := newTestREPL(t)

	r.printResult(model.Success("요약본", model.ModeSummary, model.ProcessingMetadata{
		TokensUsed: 80, ProcessingTimeMs: 1200, ModelUsed: "test-model",
	}))
	got := out.String()
	if !strings.Contains(got, "요약본") || !strings.Contains(got, "80 토큰") {
		t.Errorf("success output = %q", got)
	}

	out.Reset()
	r.printResult(model.Failure("처리 실패: boom", model.ErrorAPI, "다시 시도하세요"))
	got = out.String()
	if !strings.Contains(got, "처리 실패: boom") || !strings.Contains(got, "다시 시도하세요") {
		t.Errorf("error output = %q", got)
	}
}

func TestPrintConnectionState(t *testing.T) {
	r, out := newTestREPL(t)

	r.printConnectionState(model.Disconnected())
	if !strings.Contains(out.String(), "연결되지 않음") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	r.printConnectionState(model.ConnFailed("연결 실패", "LM Studio가 실행 중인지 확인하세요"))
	got := out.String()
	if !strings.Contains(got, "연결 오류") || !strings.Contains(got, "확인하세요") {
		t.Errorf("output = %q", got)
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		raw  string
		want interface{}
	}{
		{"true", true},
		{"False", false},
		{"0.7", 0.7},
		{"1000", float64(1000)},
		{"meta-llama-3-8b-instruct", "meta-llama-3-8b-instruct"},
		{"http://127.0.0.1:1234", "http://127.0.0.1:1234"},
	}

	for _, tt := range tests {
		if got := coerce(tt.raw); got != tt.want {
			t.Errorf("coerce(%q) = %v (%T), want %v (%T)", tt.raw, got, got, tt.want, tt.want)
		}
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"한 줄", 10, "한 줄"},
		{"첫째 줄\n둘째 줄", 10, "첫째 줄"},
		{"가나다라마바사", 3, "가나다..."},
	}

	for _, tt := range tests {
		if got := firstLine(tt.in, tt.max); got != tt.want {
			t.Errorf("firstLine(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestHandleCommand_Dispatch(t *testing.T) {
	tests := []struct {
		input    string
		quit     bool
		contains string
	}{
		{"/help", false, "명령어"},
		{"/h", false, "명령어"},
		{"/status", false, "연결되지 않음"},
		{"/disconnect", false, "연결이 해제되었습니다"},
		{"/clear", false, "결과가 초기화되었습니다"},
		{"/history", false, "히스토리가 비어 있습니다"},
		{"/quit", true, ""},
		{"/q", true, ""},
		{"/exit", true, ""},
		{"/nope", false, "알 수 없는 명령"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r, out := newTestREPL(t)
			if got := r.handleCommand(context.Background(), tt.input); got != tt.quit {
				t.Errorf("handleCommand(%q) quit = %v, want %v", tt.input, got, tt.quit)
			}
			if tt.contains != "" && !strings.Contains(out.String(), tt.contains) {
				t.Errorf("output = %q, want substring %q", out.String(), tt.contains)
			}
		})
	}
}

func TestHandleConfig_SetSubcommand(t *testing.T) {
	r, _ := newTestREPL(t)

	r.handleConfig([]string{"set", "maxTokens", "800"})
	if got := r.orch.Config().LMStudio.MaxTokens; got != 800 {
		t.Errorf("MaxTokens = %d, want 800", got)
	}
}

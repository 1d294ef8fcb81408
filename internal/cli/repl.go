// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/readmark/internal/assistant"
	"github.com/jeranaias/readmark/internal/config"
	"github.com/jeranaias/readmark/internal/model"
)

// =============================================================================
// REPL
// =============================================================================

// REPL is the interactive command loop.
type REPL struct {
	orch *assistant.Orchestrator
	out  io.Writer

	line        *liner.State
	historyFile string

	// mode applied to bare text input; changed with /mode.
	mode model.Mode
}

// New creates a REPL bound to an orchestrator. Output goes to out.
func New(orch *assistant.Orchestrator, out io.Writer) *REPL {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile := ""
	if dir, err := config.ConfigDir(); err == nil {
		historyFile = filepath.Join(dir, "input_history")
	}

	r := &REPL{
		orch:        orch,
		out:         out,
		line:        line,
		historyFile: historyFile,
		mode:        model.ModeAutoDetect,
	}
	r.loadInputHistory()
	return r
}

// Close saves input history and releases the terminal.
func (r *REPL) Close() {
	r.saveInputHistory()
	r.line.Close()
}

func (r *REPL) loadInputHistory() {
	if r.historyFile == "" {
		return
	}
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
}

func (r *REPL) saveInputHistory() {
	if r.historyFile == "" {
		return
	}
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	r.line.WriteHistory(f)
}

// Run drives the command loop until /quit, Ctrl+C, or EOF.
func (r *REPL) Run(ctx context.Context) error {
	r.printWelcome()

	for {
		input, err := r.line.Prompt("readmark> ")
		if err != nil {
			// Ctrl+C or EOF: exit gracefully.
			fmt.Fprintln(r.out)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if quit := r.handleCommand(ctx, input); quit {
				return nil
			}
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}

		r.orch.ProcessText(ctx, input, r.mode)
		r.printResult(r.orch.Result())
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

// handleCommand dispatches one slash command. Returns true to exit.
func (r *REPL) handleCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "/help", "/h", "/?":
		r.printHelp()

	case "/connect":
		endpoint, apiKey := "", ""
		if len(args) > 0 {
			endpoint = args[0]
		}
		if len(args) > 1 {
			apiKey = args[1]
		}
		r.orch.TestConnection(ctx, endpoint, apiKey)
		r.printConnectionState(r.orch.ConnectionState())

	case "/disconnect":
		r.orch.Disconnect()
		fmt.Fprintln(r.out, "연결이 해제되었습니다")

	case "/status", "/s":
		r.printStatus()

	case "/model", "/m":
		r.handleModel(args)

	case "/mode":
		r.handleMode(args)

	case "/note":
		r.handleNote(args)

	case "/history":
		r.handleHistory(args)

	case "/stats":
		r.printStats()

	case "/config":
		r.handleConfig(args)

	case "/clear", "/c":
		r.orch.ClearResults()
		fmt.Fprintln(r.out, "결과가 초기화되었습니다")

	case "/quit", "/q", "/exit":
		return true

	default:
		fmt.Fprintf(r.out, "알 수 없는 명령: %s (/help 참고)\n", cmd)
	}
	return false
}

func (r *REPL) handleModel(args []string) {
	if len(args) == 0 {
		state := r.orch.ConnectionState()
		cfg := r.orch.Config()
		fmt.Fprintf(r.out, "선택된 모델: %s\n", orDash(cfg.LMStudio.SelectedModel))
		if len(state.Models) > 0 {
			fmt.Fprintln(r.out, "사용 가능한 모델:")
			for _, m := range state.Models {
				fmt.Fprintf(r.out, "  - %s\n", m)
			}
		}
		return
	}

	name := args[0]
	r.orch.UpdateConfig(map[string]interface{}{"selectedModel": name})
	fmt.Fprintf(r.out, "모델이 %s(으)로 설정되었습니다\n", name)
}

func (r *REPL) handleMode(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "현재 모드: %s\n", r.mode)
		return
	}
	r.mode = model.ModeFromString(args[0])
	fmt.Fprintf(r.out, "모드가 %s(으)로 설정되었습니다\n", r.mode)
}

func (r *REPL) handleNote(args []string) {
	result := r.orch.Result()
	if result.Phase != model.ResultSuccess {
		fmt.Fprintln(r.out, "저장할 결과가 없습니다. 먼저 텍스트를 처리하세요.")
		return
	}

	title := strings.Join(args, " ")
	if title == "" {
		title = r.orch.Config().NoteSave.DefaultFileName
	}

	path, ok := r.orch.SaveNote(title, result.Content)
	if !ok {
		fmt.Fprintln(r.out, "노트 저장에 실패했습니다")
		return
	}
	fmt.Fprintf(r.out, "노트 저장됨: %s\n", path)
}

func (r *REPL) handleHistory(args []string) {
	if len(args) == 0 {
		items := r.orch.History()
		if len(items) == 0 {
			fmt.Fprintln(r.out, "히스토리가 비어 있습니다")
			return
		}
		for _, item := range items {
			fmt.Fprintf(r.out, "[%s] %s %s\n", item.ID, item.Timestamp, item.Mode)
			fmt.Fprintf(r.out, "  입력: %s\n", firstLine(item.InputText, 60))
			fmt.Fprintf(r.out, "  결과: %s\n", firstLine(item.Result, 60))
		}
		return
	}

	switch args[0] {
	case "rm":
		if len(args) < 2 {
			fmt.Fprintln(r.out, "사용법: /history rm <id>")
			return
		}
		r.orch.DeleteHistoryItem(args[1])
		fmt.Fprintln(r.out, "삭제되었습니다")
	case "clear":
		r.orch.ClearAllHistory()
		fmt.Fprintln(r.out, "히스토리가 모두 삭제되었습니다")
	default:
		fmt.Fprintf(r.out, "알 수 없는 하위 명령: %s\n", args[0])
	}
}

func (r *REPL) handleConfig(args []string) {
	if len(args) == 0 {
		cfg := r.orch.Config()
		fmt.Fprintf(r.out, "endpoint:      %s\n", cfg.LMStudio.Endpoint)
		fmt.Fprintf(r.out, "selectedModel: %s\n", orDash(cfg.LMStudio.SelectedModel))
		fmt.Fprintf(r.out, "temperature:   %v\n", cfg.LMStudio.Temperature)
		fmt.Fprintf(r.out, "maxTokens:     %d\n", cfg.LMStudio.MaxTokens)
		fmt.Fprintf(r.out, "saveToExternal: %v\n", cfg.NoteSave.SaveToExternal)
		if cfg.NoteSave.ExternalPath != "" {
			fmt.Fprintf(r.out, "externalPath:  %s\n", cfg.NoteSave.ExternalPath)
		}
		return
	}
	// Accept both "/config key value" and "/config set key value".
	if args[0] == "set" {
		args = args[1:]
	}
	if len(args) < 2 {
		fmt.Fprintln(r.out, "사용법: /config [set] <key> <value>")
		return
	}

	key, raw := args[0], strings.Join(args[1:], " ")
	r.orch.UpdateConfig(map[string]interface{}{key: coerce(raw)})
	fmt.Fprintf(r.out, "%s = %s\n", key, raw)
}

// =============================================================================
// OUTPUT
// =============================================================================

func (r *REPL) printWelcome() {
	fmt.Fprintln(r.out, "readmark: 개인 독서 도우미")
	fmt.Fprintln(r.out, "/connect 로 LM Studio에 연결한 뒤 텍스트를 입력하세요. (/help 참고)")
}

func (r *REPL) printHelp() {
	fmt.Fprint(r.out, `명령어:
  /connect [endpoint] [apiKey]  LM Studio 연결 테스트
  /disconnect                   연결 해제
  /status                       연결 상태와 처리 결과 표시
  /model [name]                 모델 표시 또는 선택
  /mode [auto|summary|continue] 처리 모드 표시 또는 변경
  /note [title]                 마지막 결과를 노트로 저장
  /history [rm <id> | clear]    히스토리 조회/삭제
  /stats                        사용 통계
  /config [key value]           설정 조회/변경
  /clear                        결과 초기화
  /quit                         종료
바로 텍스트를 입력하면 현재 모드로 처리합니다.
`)
}

func (r *REPL) printStatus() {
	r.printConnectionState(r.orch.ConnectionState())
	result := r.orch.Result()
	if result.Phase != model.ResultIdle {
		r.printResult(result)
	}
}

func (r *REPL) printConnectionState(state model.ConnectionState) {
	switch state.Phase {
	case model.ConnConnected:
		fmt.Fprintf(r.out, "연결됨: %s\n", state.Message)
	case model.ConnConnecting:
		fmt.Fprintln(r.out, "연결 중...")
	case model.ConnError:
		fmt.Fprintf(r.out, "연결 오류: %s\n", state.Message)
		if state.Suggestion != "" {
			fmt.Fprintf(r.out, "  → %s\n", state.Suggestion)
		}
	default:
		fmt.Fprintln(r.out, "연결되지 않음")
	}
}

func (r *REPL) printResult(result model.ProcessingResult) {
	switch result.Phase {
	case model.ResultSuccess:
		fmt.Fprintf(r.out, "[%s] %s\n", result.Mode, result.Content)
		fmt.Fprintf(r.out, "  (모델 %s, %d 토큰, %dms)\n",
			result.Metadata.ModelUsed, result.Metadata.TokensUsed, result.Metadata.ProcessingTimeMs)
	case model.ResultError:
		fmt.Fprintf(r.out, "오류 [%s]: %s\n", result.ErrorType, result.Message)
		if result.Suggestion != "" {
			fmt.Fprintf(r.out, "  → %s\n", result.Suggestion)
		}
	case model.ResultLoading:
		fmt.Fprintf(r.out, "%s\n", result.Message)
	}
}

func (r *REPL) printStats() {
	stats := r.orch.Statistics()
	fmt.Fprintf(r.out, "총 세션:     %d\n", stats.TotalSessions)
	fmt.Fprintf(r.out, "처리된 항목: %d\n", stats.PagesProcessed)
	fmt.Fprintf(r.out, "생성된 요약: %d\n", stats.SummariesCreated)
}

// =============================================================================
// HELPERS
// =============================================================================

// coerce converts a command argument to the JSON-ish type the store merge
// expects: bool, number, or string.
func coerce(raw string) interface{} {
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}
	var f float64
	if _, err := fmt.Sscanf(raw, "%g", &f); err == nil && fmt.Sprintf("%g", f) == raw {
		return f
	}
	return raw
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// firstLine squashes text to a single truncated line for list display.
func firstLine(s string, maxRunes int) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	runes := []rune(s)
	if len(runes) > maxRunes {
		return string(runes[:maxRunes]) + "..."
	}
	return s
}

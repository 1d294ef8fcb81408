// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jeranaias/readmark/internal/lmstudio"
	"github.com/jeranaias/readmark/internal/model"
	"github.com/jeranaias/readmark/internal/storage"
	"github.com/jeranaias/readmark/internal/util"
)

// MinInputLength is the minimum rune count accepted by ProcessText.
const MinInputLength = 10

// placeholderResult stands in when the model returns an empty choice list.
const placeholderResult = "처리 결과가 없습니다"

// bookmarkKeywords trigger continue-reading mode during auto-detection.
// Matched against the lower-cased input.
var bookmarkKeywords = []string{"p.", "페이지", "쪽", "bookmark", "책갈피", "page"}

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies which observable state changed.
type EventKind int

const (
	EventConnection EventKind = iota
	EventResult
	EventStatistics
	EventConfig
	EventHistory
	EventLoading
)

// Event is delivered to the Notify callback after a state change.
type Event struct {
	Kind EventKind
}

// =============================================================================
// CLIENT INTERFACE
// =============================================================================

// ModelClient is the model-server surface the orchestrator depends on.
// *lmstudio.Client satisfies it.
type ModelClient interface {
	TestConnection(ctx context.Context, endpoint, apiKey string) model.ConnectionResult
	SetModel(name string)
	CurrentModel() string
	GenerateSummary(ctx context.Context, text string, temperature float64, maxTokens int, modelName string) (*lmstudio.CompletionResponse, error)
	FindBookmark(ctx context.Context, text string, modelName string) (*lmstudio.CompletionResponse, error)
	AutoProcess(ctx context.Context, text string, modelName string) (*lmstudio.CompletionResponse, error)
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator drives the reading-assistant workflow and holds the
// observable application state. It is safe for concurrent use, but only a
// single text-processing request may be in flight at a time; a second
// concurrent ProcessText is rejected with a busy result rather than queued.
type Orchestrator struct {
	mu sync.Mutex

	client ModelClient
	store  *storage.Store
	log    zerolog.Logger

	connState model.ConnectionState
	result    model.ProcessingResult
	stats     model.Statistics
	config    model.AppConfig
	history   []model.HistoryItem
	loading   bool
	inFlight  bool

	// Notify, when set, is called after every observable state change.
	// Called outside the lock; the callback may read orchestrator state.
	notify func(Event)
}

// New creates an orchestrator and loads configuration, statistics, and
// history from the store.
func New(client ModelClient, store *storage.Store, log zerolog.Logger) *Orchestrator {
	o := &Orchestrator{
		client:    client,
		store:     store,
		log:       log.With().Str("component", "assistant").Logger(),
		connState: model.Disconnected(),
		result:    model.Idle(),
	}
	o.config = store.GetConfig()
	o.stats = store.GetStatistics()
	o.history = store.GetHistoryList()
	return o
}

// SetNotify installs the state-change callback. Pass nil to remove it.
func (o *Orchestrator) SetNotify(fn func(Event)) {
	o.mu.Lock()
	o.notify = fn
	o.mu.Unlock()
}

func (o *Orchestrator) publish(kind EventKind) {
	o.mu.Lock()
	fn := o.notify
	o.mu.Unlock()
	if fn != nil {
		fn(Event{Kind: kind})
	}
}

// =============================================================================
// OBSERVABLE STATE
// =============================================================================

// ConnectionState returns the current connection state.
func (o *Orchestrator) ConnectionState() model.ConnectionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.connState
}

// Result returns the current processing result.
func (o *Orchestrator) Result() model.ProcessingResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// Statistics returns the current aggregate statistics.
func (o *Orchestrator) Statistics() model.Statistics {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

// Config returns the current configuration snapshot.
func (o *Orchestrator) Config() model.AppConfig {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.config
}

// History returns the current history view, newest first.
func (o *Orchestrator) History() []model.HistoryItem {
	o.mu.Lock()
	defer o.mu.Unlock()
	items := make([]model.HistoryItem, len(o.history))
	copy(items, o.history)
	return items
}

// IsLoading reports whether an operation is in progress.
func (o *Orchestrator) IsLoading() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loading
}

func (o *Orchestrator) setLoading(v bool) {
	o.mu.Lock()
	o.loading = v
	o.mu.Unlock()
	o.publish(EventLoading)
}

func (o *Orchestrator) setConnState(s model.ConnectionState) {
	o.mu.Lock()
	o.connState = s
	o.mu.Unlock()
	o.publish(EventConnection)
}

func (o *Orchestrator) setResult(r model.ProcessingResult) {
	o.mu.Lock()
	o.result = r
	o.mu.Unlock()
	o.publish(EventResult)
}

// =============================================================================
// CONNECTION
// =============================================================================

// TestConnection probes the model server and, on success, persists the
// working endpoint, key, and first discovered model into configuration.
// Blank endpoint or apiKey fall back to the configured values. The loading
// flag clears regardless of outcome.
func (o *Orchestrator) TestConnection(ctx context.Context, endpoint, apiKey string) {
	o.setLoading(true)
	defer o.setLoading(false)
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().Interface("panic", r).Msg("connection test panicked")
			o.setConnState(model.ConnFailed(
				fmt.Sprintf("연결 실패: %v", r),
				"LM Studio가 실행 중인지 확인하세요",
			))
		}
	}()

	o.setConnState(model.Connecting())

	cfg := o.Config()
	if endpoint == "" {
		endpoint = cfg.LMStudio.Endpoint
	}
	if apiKey == "" {
		apiKey = cfg.LMStudio.APIKey
	}

	result := o.client.TestConnection(ctx, endpoint, apiKey)
	if !result.Success {
		o.setConnState(model.ConnFailed(result.Message, result.Suggestion))
		return
	}

	o.setConnState(model.Connected(result.Models, result.Message))

	updates := map[string]interface{}{
		"endpoint": endpoint,
		"apiKey":   apiKey,
	}
	if len(result.Models) > 0 {
		updates["selectedModel"] = result.Models[0]
		o.client.SetModel(result.Models[0])
	}
	o.UpdateConfig(updates)
}

// Disconnect resets the connection state. No network traffic is involved;
// the link is stateless HTTP.
func (o *Orchestrator) Disconnect() {
	o.setConnState(model.Disconnected())
}

// =============================================================================
// TEXT PROCESSING
// =============================================================================

// ProcessText runs one text through the resolved work mode and publishes a
// terminal Success or Error result. Persistence side effects (session
// record, history item) happen after the Success result is published and
// never alter it. Errors never propagate past this method.
func (o *Orchestrator) ProcessText(ctx context.Context, text string, mode model.Mode) {
	if utf8.RuneCountInString(text) < MinInputLength {
		o.setResult(model.Failure(
			fmt.Sprintf("입력된 텍스트가 너무 짧습니다 (최소 %d자)", MinInputLength),
			model.ErrorValidation,
			"",
		))
		return
	}

	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		o.setResult(model.Failure(
			"이미 처리 중인 요청이 있습니다",
			model.ErrorValidation,
			"현재 요청이 끝난 후 다시 시도하세요",
		))
		return
	}
	o.inFlight = true
	o.mu.Unlock()

	o.setLoading(true)
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().Interface("panic", r).Msg("text processing panicked")
			o.setResult(model.Failure(
				fmt.Sprintf("예상치 못한 오류: %v", r),
				model.ErrorUnknown,
				"",
			))
		}
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
		o.setLoading(false)
	}()

	o.setResult(model.Loading("텍스트 분석 중..."))

	if !o.ConnectionState().IsConnected() {
		o.setResult(model.Failure(
			"LM Studio 연결이 필요합니다",
			model.ErrorConnection,
			"먼저 연결 테스트를 수행하세요",
		))
		return
	}

	resolved := mode
	if mode == model.ModeAutoDetect {
		resolved = detectMode(text)
	}

	cfg := o.Config()
	selectedModel := strings.TrimSpace(cfg.LMStudio.SelectedModel)

	start := time.Now()
	var resp *lmstudio.CompletionResponse
	var err error
	switch resolved {
	case model.ModeSummary:
		resp, err = o.client.GenerateSummary(ctx, text, cfg.LMStudio.Temperature, cfg.LMStudio.MaxTokens, selectedModel)
	case model.ModeContinueReading:
		resp, err = o.client.FindBookmark(ctx, text, selectedModel)
	default:
		resp, err = o.client.AutoProcess(ctx, text, selectedModel)
	}
	elapsed := time.Since(start)

	if err != nil {
		o.log.Warn().Err(err).Str("mode", resolved.String()).Msg("processing failed")
		o.setResult(model.Failure(
			"처리 실패: "+err.Error(),
			classifyClientError(err),
			lmstudio.ErrorSuggestion(err),
		))
		return
	}

	content := resp.FirstContent()
	if content == "" {
		content = placeholderResult
	}
	tokensUsed := resp.TotalTokens()

	o.setResult(model.Success(content, resolved, model.ProcessingMetadata{
		TokensUsed:       tokensUsed,
		ProcessingTimeMs: elapsed.Milliseconds(),
		ModelUsed:        resp.Model,
	}))

	// Persistence failures are absorbed; the published Success result is
	// already terminal and must not regress.
	o.saveSession(text, content, resolved, tokensUsed)
	o.saveHistoryItem(text, content, resolved, tokensUsed, resp.Model)
}

// detectMode resolves auto-detect by scanning the lower-cased input for
// bookmark hints.
func detectMode(text string) model.Mode {
	lower := strings.ToLower(text)
	for _, kw := range bookmarkKeywords {
		if strings.Contains(lower, kw) {
			return model.ModeContinueReading
		}
	}
	return model.ModeSummary
}

// classifyClientError maps a client error onto the user-facing taxonomy.
func classifyClientError(err error) model.ErrorType {
	var clientErr *lmstudio.ClientError
	if errors.As(err, &clientErr) {
		switch clientErr.Type {
		case lmstudio.ErrTypeTimeout, lmstudio.ErrTypeConnection:
			return model.ErrorNetwork
		case lmstudio.ErrTypeAPI, lmstudio.ErrTypeInvalidResponse:
			return model.ErrorAPI
		}
	}
	return model.ErrorAPI
}

// =============================================================================
// PERSISTENCE SIDE EFFECTS
// =============================================================================

func (o *Orchestrator) saveSession(inputText, result string, mode model.Mode, tokensUsed int) {
	record := model.SessionRecord{
		SessionID:   fmt.Sprintf("session_%d", time.Now().UnixMilli()),
		Mode:        mode.String(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		InputLength: utf8.RuneCountInString(inputText),
		Summary:     util.Truncate(result, 100),
		TokensUsed:  tokensUsed,
	}
	if o.store.AddSessionRecord(record) {
		o.reloadStatistics()
	}
}

func (o *Orchestrator) saveHistoryItem(inputText, result string, mode model.Mode, tokensUsed int, modelUsed string) {
	item := model.HistoryItem{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		InputText:  inputText,
		Result:     result,
		Mode:       strings.ToUpper(mode.String()),
		TokensUsed: tokensUsed,
		ModelUsed:  modelUsed,
	}
	if o.store.SaveHistoryItem(item) {
		o.LoadHistory()
	}
}

func (o *Orchestrator) reloadStatistics() {
	stats := o.store.GetStatistics()
	o.mu.Lock()
	o.stats = stats
	o.mu.Unlock()
	o.publish(EventStatistics)
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// UpdateConfig applies a partial configuration update and reloads the
// snapshot when the write succeeds.
func (o *Orchestrator) UpdateConfig(updates map[string]interface{}) {
	if !o.store.UpdateConfig(updates) {
		return
	}
	cfg := o.store.GetConfig()
	o.mu.Lock()
	o.config = cfg
	o.mu.Unlock()
	o.publish(EventConfig)
}

// =============================================================================
// NOTES
// =============================================================================

// SaveNote writes content to a note file using the configured save
// preferences. Returns the absolute path and false on failure; it never
// panics past the boundary.
func (o *Orchestrator) SaveNote(title, content string) (string, bool) {
	cfg := o.Config()
	path, err := o.store.SaveNote(content, title, cfg.NoteSave.SaveToExternal, cfg.NoteSave.ExternalPath)
	if err != nil {
		o.log.Warn().Err(err).Str("title", title).Msg("note save failed")
		return "", false
	}
	return path, true
}

// =============================================================================
// HISTORY
// =============================================================================

// LoadHistory refreshes the history view from the store.
func (o *Orchestrator) LoadHistory() {
	items := o.store.GetHistoryList()
	o.mu.Lock()
	o.history = items
	o.mu.Unlock()
	o.publish(EventHistory)
}

// DeleteHistoryItem removes one history item and reloads the view on
// success.
func (o *Orchestrator) DeleteHistoryItem(id string) {
	if o.store.DeleteHistoryItem(id) {
		o.LoadHistory()
	}
}

// ClearAllHistory removes all history items and reloads the view on
// success.
func (o *Orchestrator) ClearAllHistory() {
	if o.store.ClearAllHistory() {
		o.LoadHistory()
	}
}

// ClearResults resets the processing result to Idle.
func (o *Orchestrator) ClearResults() {
	o.setResult(model.Idle())
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lmstudio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jeranaias/readmark/internal/model"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the LM Studio client.
type ClientConfig struct {
	// Endpoint is the model-server base URL (default: http://127.0.0.1:1234)
	// Note: Uses explicit IPv4 address instead of localhost to avoid IPv6
	// resolution issues on some platforms
	Endpoint string

	// APIKey is sent as a bearer token. LM Studio accepts any value; the
	// conventional default is "lm-studio".
	APIKey string

	// DefaultModel to use if none selected yet.
	DefaultModel string

	// ConnectTimeout bounds TCP dialing (default: 30s).
	ConnectTimeout time.Duration

	// RequestTimeout bounds a whole completion request (default: 300s).
	// Local inference on large models is slow; the read window is generous.
	RequestTimeout time.Duration

	// RequestsPerSecond caps the request rate against the local server
	// (default: 5, burst 10).
	RequestsPerSecond float64
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Endpoint:          "http://127.0.0.1:1234",
		APIKey:            "lm-studio",
		ConnectTimeout:    30 * time.Second,
		RequestTimeout:    300 * time.Second,
		RequestsPerSecond: 5,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with an LM Studio model server.
//
// The Client is thread-safe for concurrent use. A successful connection
// test commits the tested endpoint/key as current and selects the first
// discovered model.
type Client struct {
	mu       sync.Mutex
	endpoint string
	apiKey   string
	model    string

	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// NewClient creates a client with default configuration.
func NewClient(log zerolog.Logger) *Client {
	return NewClientWithConfig(DefaultClientConfig(), log)
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(config *ClientConfig, log zerolog.Logger) *Client {
	if config == nil {
		config = DefaultClientConfig()
	}
	if config.Endpoint == "" {
		config.Endpoint = "http://127.0.0.1:1234"
	}
	if config.APIKey == "" {
		config.APIKey = "lm-studio"
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 30 * time.Second
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 300 * time.Second
	}
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = 5
	}

	return &Client{
		endpoint: strings.TrimRight(config.Endpoint, "/"),
		apiKey:   config.APIKey,
		model:    config.DefaultModel,
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: config.ConnectTimeout,
				}).DialContext,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: config.RequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 10),
		log:     log.With().Str("component", "lmstudio").Logger(),
	}
}

// =============================================================================
// CONNECTION TEST
// =============================================================================

// TestConnection probes {endpoint}/v1/models with bearer auth. Empty
// endpoint or apiKey fall back to the client's current values.
//
// An empty model list is reported as a non-success with remediation text
// rather than a hard failure: the server is reachable, but nothing is
// loaded. The tested endpoint/key are still committed so a later retry
// targets the same server. On success the first model becomes current.
func (c *Client) TestConnection(ctx context.Context, endpoint, apiKey string) model.ConnectionResult {
	c.mu.Lock()
	if endpoint == "" {
		endpoint = c.endpoint
	}
	if apiKey == "" {
		apiKey = c.apiKey
	}
	c.mu.Unlock()
	endpoint = strings.TrimRight(endpoint, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/v1/models", nil)
	if err != nil {
		return model.ConnectionResult{
			Success:    false,
			Message:    "연결 실패: " + err.Error(),
			Suggestion: SuggestionForNetworkError(err.Error()),
		}
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("endpoint", endpoint).Msg("connection test failed")
		return model.ConnectionResult{
			Success:    false,
			Message:    "연결 실패: " + err.Error(),
			Suggestion: SuggestionForNetworkError(err.Error()),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drain(resp.Body)
		return model.ConnectionResult{
			Success:    false,
			Message:    fmt.Sprintf("서버 응답 오류: %d", resp.StatusCode),
			Suggestion: "LM Studio가 실행 중인지 확인하세요",
		}
	}

	models := parseModels(resp.Body, c.log)

	// Server reachable: commit the tested endpoint and key even when no
	// model is loaded yet, so a retry after loading targets the same server.
	c.mu.Lock()
	c.endpoint = endpoint
	c.apiKey = apiKey
	c.mu.Unlock()

	if len(models) == 0 {
		c.log.Warn().Str("endpoint", endpoint).Msg("no models loaded on server")
		return model.ConnectionResult{
			Success: false,
			Message: "LM Studio에 로드된 모델이 없습니다",
			Suggestion: "LM Studio를 열고 모델을 로드한 후 다시 시도하세요.\n\n" +
				"방법:\n" +
				"1. LM Studio 실행\n" +
				"2. 왼쪽 메뉴에서 모델 선택\n" +
				"3. 'Load Model' 버튼 클릭\n" +
				"4. 모델 로드 완료 후 이 앱에서 '연결 테스트' 다시 클릭",
			Models: []string{},
		}
	}

	c.mu.Lock()
	c.model = models[0]
	c.mu.Unlock()
	c.log.Debug().Str("model", models[0]).Int("available", len(models)).Msg("connection established")

	return model.ConnectionResult{
		Success: true,
		Message: fmt.Sprintf("연결 성공! %d개의 모델을 사용할 수 있습니다.", len(models)),
		Models:  models,
	}
}

// parseModels extracts data[].id from a /v1/models body. Malformed bodies
// degrade to an empty list.
func parseModels(r io.Reader, log zerolog.Logger) []string {
	var parsed modelsResponse
	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		log.Warn().Err(err).Msg("failed to parse model list")
		return nil
	}
	models := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		if m.ID != "" {
			models = append(models, m.ID)
		}
	}
	return models
}

// =============================================================================
// MODEL SELECTION
// =============================================================================

// SetModel updates the current model.
func (c *Client) SetModel(model string) {
	c.mu.Lock()
	c.model = model
	c.mu.Unlock()
	c.log.Debug().Str("model", model).Msg("model selected")
}

// CurrentModel returns the currently selected model name.
func (c *Client) CurrentModel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// Endpoint returns the current server base URL.
func (c *Client) Endpoint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoint
}

// resolveModel maps a blank model name to the current selection.
func (c *Client) resolveModel(model string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return c.CurrentModel()
}

// =============================================================================
// COMPLETION OPERATIONS
// =============================================================================

// GenerateSummary asks the model for a short summary of text. A blank model
// uses the current selection.
func (c *Client) GenerateSummary(ctx context.Context, text string, temperature float64, maxTokens int, model string) (*CompletionResponse, error) {
	return c.chatCompletion(ctx, summaryPrompt(text), temperature, maxTokens, c.resolveModel(model))
}

// FindBookmark asks the model to locate the reading position in text.
// Low temperature keeps the extraction deterministic.
func (c *Client) FindBookmark(ctx context.Context, text string, model string) (*CompletionResponse, error) {
	return c.chatCompletion(ctx, bookmarkPrompt(text), 0.3, 400, c.resolveModel(model))
}

// AutoProcess lets the model choose between bookmark extraction and
// summarization based on the text content.
func (c *Client) AutoProcess(ctx context.Context, text string, model string) (*CompletionResponse, error) {
	return c.chatCompletion(ctx, autoPrompt(text), 0.5, 600, c.resolveModel(model))
}

// chatCompletion issues a non-streaming /v1/chat/completions request.
func (c *Client) chatCompletion(ctx context.Context, prompt string, temperature float64, maxTokens int, model string) (*CompletionResponse, error) {
	// RELIABILITY: Rate limiting protects the local server from request bursts
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ClientError{Type: ErrTypeTimeout, Message: "rate limit wait canceled", Cause: err}
	}

	c.mu.Lock()
	endpoint := c.endpoint
	apiKey := c.apiKey
	c.mu.Unlock()

	reqBody := chatRequest{
		Model: model,
		Messages: []Message{
			{Role: "system", Content: systemPersona},
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      false,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	url := endpoint + "/v1/chat/completions"
	c.log.Debug().Str("url", url).Str("model", model).Float64("temperature", temperature).Int("max_tokens", maxTokens).Msg("completion request")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, &ClientError{
			Type:       ErrTypeConnection,
			Message:    "연결 실패",
			Suggestion: SuggestionForNetworkError(err.Error()),
			Cause:      err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.apiError(resp, url, model)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to read response", Cause: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyResponse
	}

	var result CompletionResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	c.log.Debug().Int("choices", len(result.Choices)).Int("tokens", result.TotalTokens()).Msg("completion response")
	return &result, nil
}

// apiError maps a non-2xx completion response onto a status-specific
// Korean error message.
func (c *Client) apiError(resp *http.Response, url, model string) error {
	errorBody := readBodyPrefix(resp.Body, 4096)
	c.log.Warn().Int("status", resp.StatusCode).Str("body", errorBody).Msg("completion request failed")

	var message string
	switch resp.StatusCode {
	case http.StatusBadRequest:
		if strings.Contains(errorBody, "Failed to load model") {
			message = fmt.Sprintf("모델 로드 실패: '%s' 모델이 LM Studio에서 로드되지 않았습니다.\n\n"+
				"해결 방법:\n"+
				"1. LM Studio를 열고 모델이 로드되어 있는지 확인\n"+
				"2. 로드되지 않았다면 왼쪽 메뉴에서 모델 선택 후 'Load Model' 클릭\n"+
				"3. 모델 로드 완료 후 이 앱에서 '연결 테스트'를 다시 실행\n"+
				"4. 사용 가능한 모델 목록에서 선택하여 사용", model)
		} else {
			message = fmt.Sprintf("잘못된 요청 (400): %s", errorBody)
		}
	case http.StatusUnauthorized:
		message = "인증 실패: API 키를 확인하세요"
	case http.StatusNotFound:
		message = "엔드포인트를 찾을 수 없습니다: " + url
	case http.StatusInternalServerError:
		message = "LM Studio 서버 오류: 서버를 재시작해보세요"
	default:
		message = fmt.Sprintf("API 요청 실패 (%d): %s", resp.StatusCode, errorBody)
	}

	return &ClientError{Type: ErrTypeAPI, Message: message}
}

// readBodyPrefix reads up to limit bytes of a response body.
func readBodyPrefix(r io.Reader, limit int64) string {
	data, _ := io.ReadAll(io.LimitReader(r, limit))
	return string(data)
}

// drain discards a response body so the connection can be reused.
func drain(r io.Reader) {
	io.Copy(io.Discard, r)
}

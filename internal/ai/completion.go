package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

type CompletionConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// CompletionModel talks to an OpenAI compatible /v1/completions endpoint,
// as exposed by vLLM, TGI or llama.cpp serving the fine tuned checkpoint.
// The prompt is echoed by the server.
type CompletionModel struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewCompletionModel(cfg CompletionConfig) (*CompletionModel, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &CompletionModel{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   strings.TrimSpace(cfg.Model),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type completionRequest struct {
	Model       string   `json:"model,omitempty"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature float64  `json:"temperature"`
	N           int      `json:"n"`
	Echo        bool     `json:"echo"`
	Stop        []string `json:"stop,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (m *CompletionModel) Generate(ctx context.Context, text string, opts Options) (string, error) {
	n := opts.N
	if n <= 0 {
		n = 1
	}
	payload := completionRequest{
		Model:       m.model,
		Prompt:      text,
		MaxTokens:   opts.MaxNewTokens,
		Temperature: 0,
		N:           n,
		Echo:        true,
		Stop:        opts.stopSequences(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal completion payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request completion: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read completion response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("completion failed status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty completion choices")
	}

	out := parsed.Choices[0].Text
	if !strings.HasPrefix(out, text) {
		// some servers ignore echo
		out = text + out
	}
	return out, nil
}

func (m *CompletionModel) Close() error {
	m.client.CloseIdleConnections()
	return nil
}

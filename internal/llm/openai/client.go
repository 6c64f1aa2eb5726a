package openai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resume-processor/internal/llm"
	"resume-processor/internal/shared/telemetry"
)

const defaultTimeout = 60 * time.Second

// Config describes one OpenAI-compatible chat completions endpoint.
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
	// Headers are sent on every request, e.g. OpenRouter attribution headers.
	Headers map[string]string
}

// Client implements llm.Completer against /chat/completions.
type Client struct {
	provider   string
	endpoint   string
	apiKey     string
	model      string
	headers    map[string]string
	httpClient *http.Client
}

// NewClient validates cfg and builds a client with a per-request timeout.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s api key is required", cfg.Provider)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("%s model is required", cfg.Provider)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("%s base url is required", cfg.Provider)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		provider: cfg.Provider,
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		headers:  cfg.Headers,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	TopP        float32       `json:"top_p,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message *chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends prompt as a single user message.
func (c *Client) Complete(ctx context.Context, prompt string, opts llm.Options) (llm.Completion, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		TopP:        opts.TopP,
	})
	if err != nil {
		return llm.Completion{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return llm.Completion{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return llm.Completion{}, c.apiError(0, "request timeout", err)
		}
		return llm.Completion{}, c.apiError(0, err.Error(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Completion{}, c.apiError(resp.StatusCode, "read body: "+err.Error(), err)
	}

	var parsed chatResponse
	parseErr := json.Unmarshal(body, &parsed)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := snippet(body)
		if parseErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return llm.Completion{}, c.apiError(resp.StatusCode, msg, nil)
	}
	if parseErr != nil {
		return llm.Completion{}, c.apiError(resp.StatusCode, "response parse: "+parseErr.Error(), parseErr)
	}
	if parsed.Error != nil {
		return llm.Completion{}, c.apiError(resp.StatusCode, fmt.Sprintf("%s (%s)", parsed.Error.Message, parsed.Error.Type), nil)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message == nil {
		return llm.Completion{}, c.apiError(resp.StatusCode, "response missing choices[0].message", nil)
	}

	out := llm.Completion{Text: parsed.Choices[0].Message.Content}
	fields := map[string]any{
		"provider":      c.provider,
		"model":         c.model,
		"prompt_sha256": hashPrompt(prompt),
		"duration_ms":   time.Since(started).Milliseconds(),
		"request_id":    telemetry.RequestIDFromContext(ctx),
	}
	if parsed.Usage != nil {
		out.TokensUsed = parsed.Usage.TotalTokens
		fields["prompt_tokens"] = parsed.Usage.PromptTokens
		fields["completion_tokens"] = parsed.Usage.CompletionTokens
		fields["total_tokens"] = parsed.Usage.TotalTokens
	}
	telemetry.Info("llm.completion", fields)
	return out, nil
}

func (c *Client) apiError(status int, msg string, err error) *llm.APIError {
	return &llm.APIError{Provider: c.provider, Status: status, Message: msg, Err: err}
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}

func hashPrompt(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

var _ llm.Completer = (*Client)(nil)

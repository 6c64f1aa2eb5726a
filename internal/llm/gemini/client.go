// Package gemini adapts the Google Gen AI SDK to llm.Completer.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"resume-processor/internal/llm"
	"resume-processor/internal/shared/telemetry"
)

// Client sends single-turn prompts to a Gemini model.
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// Config configures the Gemini client. BaseURL is only set in tests.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// NewClient builds a Gemini API backed client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("gemini model is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{client: client, model: cfg.Model, timeout: timeout}, nil
}

// Complete generates content for prompt.
func (c *Client) Complete(ctx context.Context, prompt string, opts llm.Options) (llm.Completion, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(opts.Temperature),
	}
	if opts.TopP > 0 {
		config.TopP = genai.Ptr(opts.TopP)
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return llm.Completion{}, &llm.APIError{Provider: "gemini", Status: apiErr.Code, Message: apiErr.Message, Err: err}
		}
		return llm.Completion{}, &llm.APIError{Provider: "gemini", Message: err.Error(), Err: err}
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return llm.Completion{}, &llm.APIError{Provider: "gemini", Message: "response missing candidates"}
	}

	out := llm.Completion{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		out.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}
	telemetry.Info("llm.completion", map[string]any{
		"provider":     "gemini",
		"model":        c.model,
		"total_tokens": out.TokensUsed,
		"request_id":   telemetry.RequestIDFromContext(ctx),
	})
	return out, nil
}

var _ llm.Completer = (*Client)(nil)

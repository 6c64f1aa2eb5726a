package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"resume-processor/internal/shared/metrics"
	"resume-processor/internal/shared/telemetry"
)

const (
	DefaultAttempts  = 3
	DefaultBaseDelay = time.Second
)

// Retrying retries every failure of Base with exponential backoff: the wait
// after attempt n (counted from 0) is 2^n * BaseDelay.
type Retrying struct {
	Base      Completer
	Provider  string
	Attempts  int
	BaseDelay time.Duration
}

// NewRetrying wraps base with the default three attempts and one second base delay.
func NewRetrying(base Completer, provider string) *Retrying {
	return &Retrying{Base: base, Provider: provider, Attempts: DefaultAttempts, BaseDelay: DefaultBaseDelay}
}

// Complete returns the first successful completion, or an *APIError once attempts are exhausted.
func (r *Retrying) Complete(ctx context.Context, prompt string, opts Options) (Completion, error) {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	base := r.BaseDelay
	if base < 0 {
		base = 0
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		metrics.IncCompletionRequests()
		out, err := r.Base.Complete(ctx, prompt, opts)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}

		delay := base * time.Duration(1<<attempt)
		metrics.IncCompletionRetries()
		telemetry.Warn("llm.retry", map[string]any{
			"provider":   r.Provider,
			"attempt":    attempt + 1,
			"delay_ms":   delay.Milliseconds(),
			"request_id": telemetry.RequestIDFromContext(ctx),
			"error":      sanitizeError(err),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Completion{}, ctx.Err()
		}
	}
	return Completion{}, exhausted(r.Provider, attempts, lastErr)
}

func exhausted(provider string, attempts int, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		out := *apiErr
		out.Attempts = attempts
		if out.Provider == "" {
			out.Provider = provider
		}
		return &out
	}
	return &APIError{Provider: provider, Message: sanitizeError(err), Attempts: attempts, Err: err}
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	if len(msg) > 500 {
		msg = msg[:500]
	}
	return msg
}

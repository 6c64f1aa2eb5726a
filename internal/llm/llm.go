package llm

import (
	"context"
	"errors"
	"fmt"
)

// Completer produces one completion for a single-message prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts Options) (Completion, error)
}

// Options are the sampling parameters sent with a completion request.
type Options struct {
	Temperature float32
	MaxTokens   int
	TopP        float32
}

// Completion is the model's text output and its token usage.
type Completion struct {
	Text       string
	TokensUsed int
}

// ErrCompletionAPI matches every *APIError via errors.Is.
var ErrCompletionAPI = errors.New("completion api error")

// ErrNoProvider is returned when no provider has credentials configured.
var ErrNoProvider = errors.New("no completion provider configured")

// APIError carries the upstream status and message of a failed completion.
type APIError struct {
	Provider string
	Status   int
	Message  string
	Attempts int
	Err      error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s completion failed", e.Provider)
	if e.Status > 0 {
		msg += fmt.Sprintf(" status=%d", e.Status)
	}
	if e.Attempts > 0 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool { return target == ErrCompletionAPI }

// Func adapts a function to Completer.
type Func func(ctx context.Context, prompt string, opts Options) (Completion, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, prompt string, opts Options) (Completion, error) {
	return f(ctx, prompt, opts)
}

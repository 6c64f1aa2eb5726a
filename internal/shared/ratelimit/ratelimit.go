// Package ratelimit implements per-client sliding-window request ceilings.
package ratelimit

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// DefaultWindow is the length of the sliding window.
const DefaultWindow = time.Minute

// Decision reports the outcome of one admission check.
type Decision struct {
	Allowed      bool `json:"allowed"`
	Limit        int  `json:"limit"`
	Remaining    int  `json:"remaining"`
	ResetSeconds int  `json:"resetTime"`
}

// Limiter admits or rejects requests per client. Rejected requests are not counted.
type Limiter interface {
	Check(ctx context.Context, clientID string) (Decision, error)
	// Tracked reports how many clients currently have requests inside the window.
	Tracked(ctx context.Context) (int, error)
}

// ClientID identifies the caller from proxy headers: the first X-Forwarded-For
// entry, then X-Real-IP, then "unknown".
func ClientID(h http.Header) string {
	if fwd := h.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(h.Get("X-Real-IP")); real != "" {
		return real
	}
	return "unknown"
}

func resetSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

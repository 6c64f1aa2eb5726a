package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resume-processor/internal/shared/metrics"
	"resume-processor/internal/shared/ratelimit"
	"resume-processor/internal/shared/server/respond"
	"resume-processor/internal/shared/telemetry"
)

// RateLimitKey holds the admitted ratelimit.Decision for handlers that report it.
const RateLimitKey = "rateLimit"

// RateLimit admits requests through limiter, keyed by ratelimit.ClientID.
// Backend errors let the request through. provider only labels the rejection.
func RateLimit(limiter ratelimit.Limiter, provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		clientID := ratelimit.ClientID(c.Request.Header)
		decision, err := limiter.Check(c.Request.Context(), clientID)
		if err != nil {
			telemetry.Warn("ratelimit.backend_error", map[string]any{
				"request_id": RequestIDFromContext(c),
				"client_id":  clientID,
				"error":      err.Error(),
			})
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		h.Set("X-RateLimit-Reset", strconv.Itoa(decision.ResetSeconds))

		if decision.Allowed {
			c.Set(RateLimitKey, decision)
			c.Next()
			return
		}

		metrics.IncRateLimitRejected()
		h.Set("Retry-After", strconv.Itoa(decision.ResetSeconds))
		c.Set(ErrorCodeKey, "RATE_LIMITED")
		respond.ErrorWith(c, http.StatusTooManyRequests, "RATE_LIMITED",
			fmt.Sprintf("Rate limit exceeded for %s. Please wait %d seconds before trying again.", provider, decision.ResetSeconds),
			nil,
			gin.H{"rateLimit": gin.H{
				"limit":     decision.Limit,
				"remaining": decision.Remaining,
				"resetTime": decision.ResetSeconds,
				"provider":  provider,
			}},
		)
	}
}

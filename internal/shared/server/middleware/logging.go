package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-processor/internal/shared/telemetry"
)

// RecordIDKey is set by handlers that persisted or read a record.
const RecordIDKey = "recordId"

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		telemetry.Info("request.complete", map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"record_id":   c.GetString(RecordIDKey),
			"error_code":  c.GetString(ErrorCodeKey),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})
	}
}

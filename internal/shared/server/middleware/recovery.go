package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"resume-processor/internal/shared/server/respond"
	"resume-processor/internal/shared/telemetry"
)

// Recovery turns a panic into a 500 UNKNOWN_ERROR response. The panic value is
// only exposed as details outside production.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				reqID := RequestIDFromContext(c)
				telemetry.Error("panic", map[string]any{
					"request_id": reqID,
					"error":      rec,
					"stack":      string(debug.Stack()),
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
				})
				c.Set(ErrorCodeKey, "UNKNOWN_ERROR")
				respond.Error(c, http.StatusInternalServerError, "UNKNOWN_ERROR", "An unexpected error occurred", fmt.Sprint(rec))
			}
		}()
		c.Next()
	}
}

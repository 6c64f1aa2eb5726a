package middleware

import (
	"github.com/gin-gonic/gin"

	"resume-processor/internal/shared/server/respond"
)

// ErrorCodeKey holds the error code of a failed request for logging.
const ErrorCodeKey = "errorCode"

// ErrorDetails controls whether error bodies include the underlying error. Off in production.
func ErrorDetails(expose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(respond.ExposeDetailsKey, expose)
		c.Next()
	}
}

package respond

import (
	"github.com/gin-gonic/gin"

	"resume-processor/internal/shared/telemetry"
)

// ExposeDetailsKey marks a request whose error responses may carry the underlying error.
const ExposeDetailsKey = "exposeErrorDetails"

// ErrorResponse is the standardized error body.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details any) {
	ErrorWith(c, status, code, message, details, nil)
}

// ErrorWith sends a standardized error response with additional top-level fields.
// details is dropped unless the request was marked with ExposeDetailsKey.
func ErrorWith(c *gin.Context, status int, code, message string, details any, extra gin.H) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if details != nil {
		fields["details"] = details
	}
	telemetry.Error("http.error", fields)

	body := gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	}
	if details != nil && c.GetBool(ExposeDetailsKey) {
		body["details"] = details
	}
	for k, v := range extra {
		if _, reserved := body[k]; !reserved {
			body[k] = v
		}
	}
	c.Header("Cache-Control", "no-store")
	c.AbortWithStatusJSON(status, body)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"resume-processor/internal/shared/telemetry"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		if telemetry.RequestIDFromContext(c.Request.Context()) != RequestIDFromContext(c) {
			t.Errorf("request context and gin context disagree")
		}
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "absent", incoming: "", keep: false},
		{name: "well formed", incoming: "req-123.abc_9", keep: true},
		{name: "header injection", incoming: "abc\r\nX-Evil: 1", keep: false},
		{name: "too long", incoming: strings.Repeat("a", 65), keep: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header["X-Request-Id"] = []string{tt.incoming}
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			got := resp.Header().Get("X-Request-Id")
			if tt.keep {
				if got != tt.incoming {
					t.Fatalf("expected %q to be echoed, got %q", tt.incoming, got)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("expected generated uuid, got %q", got)
			}
		})
	}
}

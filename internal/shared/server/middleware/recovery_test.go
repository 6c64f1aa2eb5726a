package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRecoveryAnswersUnknownError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, expose := range []bool{true, false} {
		router := gin.New()
		router.Use(RequestID(), ErrorDetails(expose), Recovery())
		router.GET("/boom", func(c *gin.Context) { panic("nil map write") })

		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/boom", nil))
		if resp.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", resp.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["code"] != "UNKNOWN_ERROR" || body["success"] != false {
			t.Fatalf("unexpected body %v", body)
		}
		if _, ok := body["details"]; ok != expose {
			t.Fatalf("expose=%v: details present=%v", expose, ok)
		}
	}
}

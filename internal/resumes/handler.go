package resumes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-processor/internal/llm"
	"resume-processor/internal/services/health"
	"resume-processor/internal/shared/ratelimit"
	"resume-processor/internal/shared/server/middleware"
	"resume-processor/internal/shared/server/respond"
)

const (
	processPath = "/process-resume"
	configPath  = "/process-resume/config"
)

var supportedMethods = []string{http.MethodPost, http.MethodGet}

// rejectedMethods are answered with 405 on the process paths. OPTIONS is left
// to the CORS preflight handler.
var rejectedMethods = []string{
	http.MethodPut, http.MethodPatch, http.MethodDelete,
	http.MethodHead, http.MethodConnect, http.MethodTrace,
}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc    *Service
	Health *health.Service
	// RateLimit guards POST /process-resume when set.
	RateLimit gin.HandlerFunc
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, healthSvc *health.Service, rateLimit gin.HandlerFunc) *Handler {
	return &Handler{Svc: svc, Health: healthSvc, RateLimit: rateLimit}
}

// RegisterRoutes attaches résumé routes to the router.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	post := []gin.HandlerFunc{h.requireProvider}
	if h.RateLimit != nil {
		post = append(post, h.RateLimit)
	}
	post = append(post, h.process)

	r.POST(processPath, post...)
	r.GET(processPath, h.status)
	r.GET(configPath, h.config)
	for _, method := range rejectedMethods {
		r.Handle(method, processPath, h.MethodNotAllowed)
		r.Handle(method, configPath, h.MethodNotAllowed)
	}

	r.GET("/resumes", h.list)
	r.GET("/resumes/:id", h.get)
}

func (h *Handler) requireProvider(c *gin.Context) {
	if !h.Svc.Configured() {
		h.fail(c, llm.ErrNoProvider)
		return
	}
	c.Next()
}

func (h *Handler) process(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: invalid request body: %v", ErrMissingInput, err))
		return
	}

	out, err := h.Svc.Process(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(middleware.RecordIDKey, out.Record.ID)

	body := gin.H{
		"success": true,
		"summary": out.Summary,
		"data":    h.data(req, out),
	}
	if out.Extracted {
		body["structuredData"] = out.StructuredData
	}
	if raw, ok := c.Get(middleware.RateLimitKey); ok {
		if d, ok := raw.(ratelimit.Decision); ok {
			body["rateLimit"] = gin.H{"remaining": d.Remaining, "resetTime": d.ResetSeconds}
		}
	}
	respond.OK(c, body)
}

func (h *Handler) data(req ProcessRequest, out Outcome) gin.H {
	return gin.H{
		"id":             out.Record.ID,
		"name":           out.Record.Name,
		"resumeUrl":      out.Record.ResumeURL,
		"createdAt":      out.Record.CreatedAt,
		"fileName":       strings.TrimSpace(req.FileName),
		"fileSize":       out.FileSize,
		"document":       out.Document,
		"wordCount":      len(strings.Fields(out.Document.Text)),
		"extractedUrls":  out.URLs.ByCategory,
		"allUrls":        out.URLs.All,
		"usage":          out.Usage,
		"warnings":       nonNil(out.Warnings),
		"processedAt":    out.ProcessedAt,
		"processingTime": fmt.Sprintf("%dms", out.Duration.Milliseconds()),
		"processingMode": processingMode(out),
		"aiProvider":     gin.H{"name": h.Svc.Provider, "model": h.Svc.Model},
		"promptVersion":  llm.PromptVersion,
	}
}

func (h *Handler) status(c *gin.Context) {
	respond.OK(c, h.Health.Status(c.Request.Context()))
}

func (h *Handler) config(c *gin.Context) {
	respond.OK(c, h.Health.Config())
}

// MethodNotAllowed answers 405. It also serves as the engine's NoMethod
// handler, so paths other than the process endpoints only advertise GET.
func (h *Handler) MethodNotAllowed(c *gin.Context) {
	c.Set(middleware.ErrorCodeKey, CodeMethodNotAllowed)
	path := strings.TrimPrefix(c.Request.URL.Path, "/api")
	if path != processPath && path != configPath {
		c.Header("Allow", http.MethodGet)
		respond.Error(c, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed", nil)
		return
	}
	c.Header("Allow", strings.Join(supportedMethods, ", "))
	respond.ErrorWith(c, http.StatusMethodNotAllowed, CodeMethodNotAllowed,
		"Method not allowed. Use POST to upload resume files.", nil,
		gin.H{
			"supportedMethods": supportedMethods,
			"endpoints": gin.H{
				"POST " + processPath: "Process an uploaded resume",
				"GET " + processPath:  "Health check",
				"GET " + configPath:   "Get configuration",
			},
		})
}

func (h *Handler) get(c *gin.Context) {
	rec, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(middleware.RecordIDKey, rec.ID)
	respond.OK(c, gin.H{"success": true, "data": rec})
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	recs, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, gin.H{"success": true, "data": recs, "limit": limit, "offset": offset})
}

func (h *Handler) fail(c *gin.Context, err error) {
	f := Classify(err)
	c.Set(middleware.ErrorCodeKey, f.Code)

	var extra gin.H
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) || errors.Is(err, ErrInvalidModelJSON) || errors.Is(err, ErrSummarizationFailed) {
		extra = gin.H{
			"aiProvider": gin.H{"name": h.Svc.Provider, "model": h.Svc.Model},
			"troubleshooting": []string{
				"Check that the provider API key is valid and has remaining quota",
				"Free tier models are rate limited upstream; retry after a short wait",
			},
		}
	}
	if f.Code == CodeServiceNotConfigured {
		extra = gin.H{"configuration": gin.H{
			"requiredEnvVars": []string{"OPENROUTER_API_KEY", "GROQ_API_KEY", "TOGETHER_API_KEY", "GEMINI_API_KEY", "LLAMA_API_KEY"},
		}}
	}
	respond.ErrorWith(c, f.Status, f.Code, f.Message, err.Error(), extra)
}

func processingMode(out Outcome) string {
	switch {
	case !out.Extracted:
		return "summary"
	case out.StructuredData == nil:
		return "partial"
	default:
		return "full"
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

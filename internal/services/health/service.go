package health

import (
	"context"
	"time"

	"resume-processor/internal/shared/ratelimit"
)

// ServiceName identifies this deployment in status payloads.
const ServiceName = "Resume Processor"

// Provider describes one completion backend and whether it has credentials.
type Provider struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"displayName"`
	DefaultModel string   `json:"defaultModel"`
	Models       []string `json:"models"`
	RateLimit    int      `json:"rateLimit"`
	Configured   bool     `json:"configured"`
}

// Limits are the document constraints advertised to clients.
type Limits struct {
	MaxFileSizeBytes int64    `json:"maxFileSizeBytes"`
	MinTextLength    int      `json:"minTextLength"`
	MaxTextLength    int      `json:"maxTextLength"`
	FileTypes        []string `json:"supportedFileTypes"`
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	Providers      []Provider
	ActiveProvider string
	ActiveModel    string
	Limiter        ratelimit.Limiter
	Window         time.Duration
	Limits         Limits
	DB             Pinger
	Started        time.Time
	Now            func() time.Time
}

// Report is the GET /process-resume payload.
type Report struct {
	Status        string         `json:"status"`
	Service       string         `json:"service"`
	Timestamp     string         `json:"timestamp"`
	UptimeSeconds int64          `json:"uptimeSeconds"`
	Warnings      []string       `json:"warnings,omitempty"`
	Configuration map[string]any `json:"configuration"`
	AI            map[string]any `json:"ai"`
	RateLimiting  RateLimiting   `json:"rateLimiting"`
	Database      string         `json:"database"`
}

// RateLimiting summarizes limiter settings and load.
type RateLimiting struct {
	Enabled           bool           `json:"enabled"`
	WindowMinutes     float64        `json:"windowMinutes"`
	Limits            map[string]int `json:"limits"`
	ActiveConnections int            `json:"activeConnections"`
}

// ConfigReport is the GET /process-resume/config payload.
type ConfigReport struct {
	AvailableProviders []Provider     `json:"availableProviders"`
	DefaultProvider    *string        `json:"defaultProvider"`
	RateLimits         map[string]int `json:"rateLimits"`
	Limits
}

// Status reports provider configuration, limiter load and database reachability.
// It has no side effects.
func (s *Service) Status(ctx context.Context) Report {
	now := s.now()
	report := Report{
		Status:       "healthy",
		Service:      ServiceName,
		Timestamp:    now.UTC().Format(time.RFC3339),
		RateLimiting: s.rateLimiting(ctx),
		Database:     "memory",
	}
	if !s.Started.IsZero() {
		report.UptimeSeconds = int64(now.Sub(s.Started).Seconds())
	}

	configured := s.configured()
	if len(configured) == 0 {
		report.Status = "unhealthy"
		report.Warnings = append(report.Warnings, "No AI provider API keys configured")
		report.Configuration = map[string]any{
			"required": "At least one API key is needed",
			"options":  s.keyOptions(),
		}
		report.AI = map[string]any{"status": "error", "error": "no provider configured"}
	} else {
		report.Configuration = map[string]any{
			"configuredProviders": configured,
			"activeProvider":      s.ActiveProvider,
			"totalProviders":      len(configured),
		}
		report.AI = map[string]any{
			"provider": s.ActiveProvider,
			"model":    s.ActiveModel,
			"status":   "ready",
		}
	}

	if s.DB != nil {
		if err := s.DB.PingContext(ctx); err != nil {
			report.Database = "unreachable"
			report.Warnings = append(report.Warnings, "Database ping failed: "+err.Error())
			if report.Status == "healthy" {
				report.Status = "degraded"
			}
		} else {
			report.Database = "ok"
		}
	}
	return report
}

// Config lists configured providers and the document limits.
func (s *Service) Config() ConfigReport {
	available := []Provider{}
	for _, p := range s.Providers {
		if p.Configured {
			available = append(available, p)
		}
	}
	out := ConfigReport{
		AvailableProviders: available,
		RateLimits:         s.limits(),
		Limits:             s.Limits,
	}
	if s.ActiveProvider != "" {
		active := s.ActiveProvider
		out.DefaultProvider = &active
	}
	return out
}

func (s *Service) rateLimiting(ctx context.Context) RateLimiting {
	window := s.Window
	if window <= 0 {
		window = ratelimit.DefaultWindow
	}
	rl := RateLimiting{
		Enabled:       s.Limiter != nil,
		WindowMinutes: window.Minutes(),
		Limits:        s.limits(),
	}
	if s.Limiter != nil {
		// A failing backend reports zero rather than failing the health check.
		if n, err := s.Limiter.Tracked(ctx); err == nil {
			rl.ActiveConnections = n
		}
	}
	return rl
}

func (s *Service) limits() map[string]int {
	out := make(map[string]int, len(s.Providers))
	for _, p := range s.Providers {
		out[p.Name] = p.RateLimit
	}
	return out
}

func (s *Service) configured() []string {
	var out []string
	for _, p := range s.Providers {
		if p.Configured {
			out = append(out, p.Name)
		}
	}
	return out
}

func (s *Service) keyOptions() []string {
	return []string{"OPENROUTER_API_KEY", "GROQ_API_KEY", "TOGETHER_API_KEY", "GEMINI_API_KEY", "LLAMA_API_KEY"}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

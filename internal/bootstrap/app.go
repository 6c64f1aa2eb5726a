package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"resume-processor/internal/extract"
	"resume-processor/internal/llm"
	"resume-processor/internal/llm/gemini"
	"resume-processor/internal/llm/openai"
	"resume-processor/internal/queue"
	"resume-processor/internal/resumes"
	"resume-processor/internal/services/health"
	"resume-processor/internal/shared/config"
	"resume-processor/internal/shared/ratelimit"
	"resume-processor/internal/shared/server"
	"resume-processor/internal/shared/server/middleware"
	"resume-processor/internal/shared/storage/db"
	"resume-processor/internal/shared/storage/object"
	localstore "resume-processor/internal/shared/storage/object/local"
	"resume-processor/internal/shared/storage/object/remote"
	s3store "resume-processor/internal/shared/storage/object/s3"
	"resume-processor/internal/shared/telemetry"
)

// OpenRouter attribution headers.
const (
	openRouterReferer = "https://github.com/resume-processor"
	openRouterTitle   = "Resume Processor"
)

// App holds shared dependencies.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Fetcher  *object.Router
	Limiter  ratelimit.Limiter
	Events   queue.Client
	Provider string
	Model    string

	Repo           resumes.Repo
	ResumesService *resumes.Service
	HealthService  *health.Service
	ResumesHandler *resumes.Handler

	closers []func() error
}

// Build prepares every dependency and the router. A missing completion
// provider is not an error: the service answers 503 until one is configured.
func Build(cfg config.Config) (*App, error) {
	ctx := context.Background()
	app := &App{Config: cfg}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB
	if sqlDB != nil {
		app.closers = append(app.closers, sqlDB.Close)
		app.Repo = &resumes.PGRepo{DB: sqlDB}
	} else {
		app.Repo = resumes.NewMemoryRepo()
	}

	app.Fetcher, err = buildFetcher(ctx, cfg)
	if err != nil {
		return nil, err
	}

	completer, provider, model, err := buildCompleter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Provider, app.Model = provider.Spec().Name, model
	if completer == nil {
		app.Provider, app.Model = "", ""
	}

	app.Limiter, err = buildLimiter(cfg, rateLimitFor(cfg, provider))
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.AMQPURL) != "" {
		events, err := queue.NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			// Events are best-effort; a broker outage must not block startup.
			telemetry.Warn("bootstrap.amqp_unavailable", map[string]any{"error": err.Error()})
		} else {
			app.Events = events
			app.closers = append(app.closers, events.Close)
		}
	}

	svc := &resumes.Service{
		Repo:    app.Repo,
		Fetcher: app.Fetcher,
		Extractor: extract.New(extract.Limits{
			MinLength: cfg.MinTextLength,
			MaxLength: cfg.MaxTextLength,
		}),
		LLM:                    completer,
		Events:                 app.Events,
		Provider:               app.Provider,
		Model:                  app.Model,
		MaxFileSize:            cfg.MaxFileSizeBytes,
		AllowPartialExtraction: cfg.AllowPartialExtraction,
	}
	app.ResumesService = svc

	app.HealthService = &health.Service{
		Providers:      healthProviders(cfg),
		ActiveProvider: app.Provider,
		ActiveModel:    app.Model,
		Limiter:        app.Limiter,
		Window:         ratelimit.DefaultWindow,
		Limits: health.Limits{
			MaxFileSizeBytes: cfg.MaxFileSizeBytes,
			MinTextLength:    cfg.MinTextLength,
			MaxTextLength:    cfg.MaxTextLength,
			FileTypes:        []string{"pdf", "docx", "txt"},
		},
		Started: time.Now(),
	}
	if sqlDB != nil {
		app.HealthService.DB = sqlDB
	}

	label := app.Provider
	if label == "" {
		label = llm.ProviderOpenRouter.Spec().Name
	}
	app.ResumesHandler = resumes.NewHandler(svc, app.HealthService, middleware.RateLimit(app.Limiter, label))
	app.Router = server.NewRouter(server.RouterDeps{Config: cfg, Resumes: app.ResumesHandler})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":              cfg.Env,
		"provider":         app.Provider,
		"model":            app.Model,
		"database":         sqlDB != nil,
		"ratelimit":        cfg.RateLimitBackend,
		"fetch_schemes":    app.Fetcher.Schemes(),
		"events":           app.Events != nil,
		"partial_extract":  cfg.AllowPartialExtraction,
		"max_file_bytes":   cfg.MaxFileSizeBytes,
		"text_length_span": fmt.Sprintf("%d..%d", cfg.MinTextLength, cfg.MaxTextLength),
	})
	return app, nil
}

// Close releases the database pool and broker connection.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildFetcher(ctx context.Context, cfg config.Config) (*object.Router, error) {
	router := object.NewRouter()
	router.Register(remote.New(nil, cfg.MaxFileSizeBytes), "http", "https")
	router.Register(localstore.New(cfg.LocalStoreDir, cfg.MaxFileSizeBytes), "file")

	if strings.TrimSpace(cfg.AWSRegion) != "" || strings.TrimSpace(cfg.S3Endpoint) != "" {
		store, err := s3store.New(ctx, s3store.Options{
			Region:    cfg.AWSRegion,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Prefix:    cfg.S3Prefix,
			MaxBytes:  cfg.MaxFileSizeBytes,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 fetcher: %w", err)
		}
		router.Register(store, "s3")
	}
	return router, nil
}

// buildCompleter selects a provider and wraps its client with retries. A nil
// completer with a nil error means no provider has credentials.
func buildCompleter(ctx context.Context, cfg config.Config) (llm.Completer, llm.Provider, string, error) {
	creds := credentials(cfg)
	provider, err := llm.Select(creds, cfg.LLMProvider)
	if err != nil {
		if errors.Is(err, llm.ErrNoProvider) && strings.TrimSpace(cfg.LLMProvider) == "" {
			telemetry.Warn("bootstrap.no_provider", map[string]any{"error": err.Error()})
			return nil, provider, "", nil
		}
		return nil, provider, "", err
	}

	spec := provider.Spec()
	model := spec.DefaultModel
	if override := cfg.Providers[spec.Name].Model; override != "" {
		model = override
	}

	var base llm.Completer
	switch provider {
	case llm.ProviderGemini:
		base, err = gemini.NewClient(ctx, gemini.Config{
			APIKey:  creds[provider],
			Model:   model,
			Timeout: cfg.LLMTimeout,
		})
	default:
		baseURL := spec.BaseURL
		if provider == llm.ProviderGeneric && strings.TrimSpace(cfg.LLMBaseURL) != "" {
			baseURL = cfg.LLMBaseURL
		}
		var headers map[string]string
		if strings.Contains(baseURL, "openrouter.ai") {
			headers = map[string]string{"HTTP-Referer": openRouterReferer, "X-Title": openRouterTitle}
		}
		base, err = openai.NewClient(openai.Config{
			Provider: spec.Name,
			BaseURL:  baseURL,
			APIKey:   creds[provider],
			Model:    model,
			Timeout:  cfg.LLMTimeout,
			Headers:  headers,
		})
	}
	if err != nil {
		return nil, provider, "", err
	}
	return llm.NewRetrying(base, spec.Name), provider, model, nil
}

func credentials(cfg config.Config) llm.Credentials {
	creds := llm.Credentials{}
	for _, p := range llm.Providers {
		if key := cfg.Providers[p.Spec().Name].APIKey; key != "" {
			creds[p] = key
		}
	}
	return creds
}

func rateLimitFor(cfg config.Config, provider llm.Provider) int {
	spec := provider.Spec()
	if n := cfg.Providers[spec.Name].RateLimit; n > 0 {
		return n
	}
	return spec.RateLimit
}

func buildLimiter(cfg config.Config, limit int) (ratelimit.Limiter, error) {
	if cfg.RateLimitBackend != "redis" {
		return ratelimit.NewMemory(limit, ratelimit.DefaultWindow, nil), nil
	}
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return nil, fmt.Errorf("RATE_LIMIT_BACKEND=redis requires REDIS_URL")
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return ratelimit.NewRedis(redis.NewClient(opts), limit, ratelimit.DefaultWindow, nil), nil
}

func healthProviders(cfg config.Config) []health.Provider {
	creds := credentials(cfg)
	out := make([]health.Provider, 0, len(llm.Providers))
	for _, p := range llm.Providers {
		spec := p.Spec()
		model := spec.DefaultModel
		if override := cfg.Providers[spec.Name].Model; override != "" {
			model = override
		}
		out = append(out, health.Provider{
			Name:         spec.Name,
			DisplayName:  spec.DisplayName,
			DefaultModel: model,
			Models:       spec.Models,
			RateLimit:    rateLimitFor(cfg, p),
			Configured:   creds[p] != "",
		})
	}
	return out
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

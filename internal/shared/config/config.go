package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ProviderConfig holds the credentials and overrides for one completion provider.
type ProviderConfig struct {
	APIKey    string
	Model     string
	RateLimit int
}

// providerEnv maps provider names to their environment variable prefix.
var providerEnv = map[string]string{
	"openrouter": "OPENROUTER",
	"groq":       "GROQ",
	"together":   "TOGETHER",
	"gemini":     "GEMINI",
	"generic":    "LLAMA",
}

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	DatabaseURL     string

	Providers   map[string]ProviderConfig
	LLMProvider string
	LLMBaseURL  string
	LLMTimeout  time.Duration

	MaxFileSizeBytes       int64
	MinTextLength          int
	MaxTextLength          int
	AllowPartialExtraction bool

	RateLimitBackend string
	RedisURL         string

	LocalStoreDir string
	AWSRegion     string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	S3Prefix      string

	AMQPURL      string
	AMQPExchange string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience. Existing variables win.
	for _, path := range []string{".env", "cmd/.env"} {
		_ = godotenv.Load(path)
	}

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	providers := make(map[string]ProviderConfig, len(providerEnv))
	for name, prefix := range providerEnv {
		providers[name] = ProviderConfig{
			APIKey:    strings.TrimSpace(os.Getenv(prefix + "_API_KEY")),
			Model:     strings.TrimSpace(os.Getenv(prefix + "_MODEL")),
			RateLimit: getInt(prefix+"_RATE_LIMIT", 0),
		}
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		DatabaseURL:     dbURL,

		Providers:   providers,
		LLMProvider: strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))),
		LLMBaseURL:  getEnv("LLM_BASE_URL", ""),
		LLMTimeout:  time.Duration(getInt("LLM_TIMEOUT_SECONDS", 60)) * time.Second,

		MaxFileSizeBytes:       int64(getInt("MAX_FILE_SIZE_BYTES", 16<<20)),
		MinTextLength:          getInt("MIN_TEXT_LENGTH", 100),
		MaxTextLength:          getInt("MAX_TEXT_LENGTH", 15000),
		AllowPartialExtraction: getBool("ALLOW_PARTIAL_EXTRACTION", false),

		RateLimitBackend: normalizeBackend(getEnv("RATE_LIMIT_BACKEND", "memory")),
		RedisURL:         getEnv("REDIS_URL", ""),

		LocalStoreDir: getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:     getEnv("AWS_REGION", ""),
		S3Endpoint:    getEnv("S3_ENDPOINT", ""),
		S3AccessKey:   getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:   getEnv("S3_SECRET_KEY", ""),
		S3Prefix:      getEnv("S3_PREFIX", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "resumes"),
	}
}

// IsProduction reports whether error details must be withheld from clients.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		log.Printf("ignoring invalid %s=%q", key, raw)
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("ignoring invalid %s=%q", key, raw)
		return def
	}
	return b
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "redis":
		return "redis"
	default:
		return "memory"
	}
}

package llm

import (
	"fmt"
	"strings"
)

// Provider is the closed set of supported completion backends.
type Provider int

const (
	ProviderOpenRouter Provider = iota
	ProviderGroq
	ProviderTogether
	ProviderGemini
	ProviderGeneric
)

// Providers lists every provider in selection preference order.
var Providers = []Provider{ProviderOpenRouter, ProviderGroq, ProviderTogether, ProviderGemini, ProviderGeneric}

// DefaultRateLimit applies to providers without a specific ceiling.
const DefaultRateLimit = 5

// Spec is the static description of a provider.
type Spec struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"displayName"`
	BaseURL      string   `json:"-"`
	DefaultModel string   `json:"defaultModel"`
	Models       []string `json:"models"`
	KeyEnv       string   `json:"-"`
	RateLimit    int      `json:"rateLimit"`
}

// Spec returns the provider's endpoint, default model, key variable and per-minute ceiling.
func (p Provider) Spec() Spec {
	switch p {
	case ProviderOpenRouter:
		return Spec{
			Name:         "openrouter",
			DisplayName:  "OpenRouter",
			BaseURL:      "https://openrouter.ai/api/v1",
			DefaultModel: "meta-llama/llama-3.3-8b-instruct:free",
			Models:       []string{"meta-llama/llama-3.3-8b-instruct:free", "meta-llama/llama-3.1-8b-instruct:free"},
			KeyEnv:       "OPENROUTER_API_KEY",
			RateLimit:    5,
		}
	case ProviderGroq:
		return Spec{
			Name:         "groq",
			DisplayName:  "Groq",
			BaseURL:      "https://api.groq.com/openai/v1",
			DefaultModel: "llama3-8b-8192",
			Models:       []string{"llama3-8b-8192", "llama3-70b-8192"},
			KeyEnv:       "GROQ_API_KEY",
			RateLimit:    10,
		}
	case ProviderTogether:
		return Spec{
			Name:         "together",
			DisplayName:  "Together AI",
			BaseURL:      "https://api.together.xyz/v1",
			DefaultModel: "meta-llama/Llama-2-7b-chat-hf",
			Models:       []string{"meta-llama/Llama-2-7b-chat-hf"},
			KeyEnv:       "TOGETHER_API_KEY",
			RateLimit:    3,
		}
	case ProviderGemini:
		return Spec{
			Name:         "gemini",
			DisplayName:  "Google Gemini",
			DefaultModel: "gemini-2.0-flash",
			Models:       []string{"gemini-2.0-flash", "gemini-2.5-flash"},
			KeyEnv:       "GEMINI_API_KEY",
			RateLimit:    10,
		}
	case ProviderGeneric:
		// Generic keys talk to OpenRouter unless LLM_BASE_URL points elsewhere.
		return Spec{
			Name:         "generic",
			DisplayName:  "OpenAI-compatible",
			BaseURL:      "https://openrouter.ai/api/v1",
			DefaultModel: "meta-llama/llama-3.3-8b-instruct:free",
			Models:       []string{"meta-llama/llama-3.3-8b-instruct:free"},
			KeyEnv:       "LLAMA_API_KEY",
			RateLimit:    DefaultRateLimit,
		}
	default:
		panic(fmt.Sprintf("llm: unknown provider %d", int(p)))
	}
}

func (p Provider) String() string { return p.Spec().Name }

// ParseProvider maps a provider name to its variant.
func ParseProvider(name string) (Provider, bool) {
	clean := strings.ToLower(strings.TrimSpace(name))
	for _, p := range Providers {
		if p.Spec().Name == clean {
			return p, true
		}
	}
	return 0, false
}

// Credentials maps providers to their API keys; missing or blank means unconfigured.
type Credentials map[Provider]string

// Configured returns providers with a key, in preference order.
func (c Credentials) Configured() []Provider {
	var out []Provider
	for _, p := range Providers {
		if strings.TrimSpace(c[p]) != "" {
			out = append(out, p)
		}
	}
	return out
}

// Select returns the forced provider if named and configured, else the first configured one.
func Select(creds Credentials, forced string) (Provider, error) {
	if strings.TrimSpace(forced) != "" {
		p, ok := ParseProvider(forced)
		if !ok {
			return 0, fmt.Errorf("unknown LLM_PROVIDER %q", forced)
		}
		if strings.TrimSpace(creds[p]) == "" {
			return 0, fmt.Errorf("%w: LLM_PROVIDER=%s but %s is empty", ErrNoProvider, p, p.Spec().KeyEnv)
		}
		return p, nil
	}
	configured := creds.Configured()
	if len(configured) == 0 {
		return 0, ErrNoProvider
	}
	return configured[0], nil
}

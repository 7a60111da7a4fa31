package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/subosito/gotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	defaultOpenAIModel = "gpt-4o-mini"
	defaultGeminiModel = "gemini-2.0-flash-001"

	defaultDirectBaseURL = "https://openrouter.ai/api/v1"
	defaultDirectModel   = "meta-llama/llama-3.1-8b-instruct:free"
)

var ErrMissingCredential = errors.New("upstream credential is not set")

// Config is read once at process start and never mutated afterwards.
type Config struct {
	// Server
	Port      string
	BodyLimit string
	Debug     bool

	// Upstream
	Provider     string
	OpenAIAPIKey string
	GeminiAPIKey string
	BaseURL      string
	Model        string
}

func Load() *Config {
	// .env is optional
	_ = gotenv.Load()

	provider := getEnvOrDefault("UPSTREAM_PROVIDER", ProviderOpenAI)
	model := defaultOpenAIModel
	if provider == ProviderGemini {
		model = defaultGeminiModel
	}

	return &Config{
		Port:         getEnvOrDefault("PORT", "8080"),
		BodyLimit:    getEnvOrDefault("BODY_LIMIT", "1MB"),
		Debug:        os.Getenv("DEBUG") == "true",
		Provider:     provider,
		OpenAIAPIKey: getEnvOrDefault("OPENAI_API_KEY", os.Getenv("OPEN_API_KEY")),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		BaseURL:      os.Getenv("UPSTREAM_BASE_URL"),
		Model:        getEnvOrDefault("MODEL", model),
	}
}

func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY: %w", ErrMissingCredential)
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY: %w", ErrMissingCredential)
		}
	default:
		return fmt.Errorf("unknown UPSTREAM_PROVIDER %q", c.Provider)
	}
	return nil
}

// Direct holds the settings for the widget talking straight to an
// OpenAI-compatible upstream without the relay.
type Direct struct {
	APIKey  string
	BaseURL string
	Model   string
}

func LoadDirect() *Direct {
	_ = gotenv.Load()

	return &Direct{
		APIKey:  os.Getenv("OPENROUTER_API_KEY"),
		BaseURL: getEnvOrDefault("OPENROUTER_BASE_URL", defaultDirectBaseURL),
		Model:   getEnvOrDefault("OPENROUTER_MODEL", defaultDirectModel),
	}
}

func (d *Direct) Validate() error {
	if d.APIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY: %w", ErrMissingCredential)
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

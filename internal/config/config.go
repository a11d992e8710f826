package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/inspector/internal/providers"
)

// Config holds process-wide settings. It is built once at startup and passed
// explicitly to the components that need it.
type Config struct {
	Port       string
	UploadsDir string

	Provider     string
	Model        string
	OpenAIAPIKey string
	OpenAIURL    string
	OllamaURL    string
	GeminiAPIKey string

	MaxTokens     int
	Timeout       time.Duration
	MaxUploadMB   int64
	ThumbnailSize int
	HistorySize   int
}

// Load reads the configuration from the environment
func Load() Config {
	provider := strings.ToLower(getEnv("INSPECTION_PROVIDER", providers.OpenAI))

	cfg := Config{
		Port:       getEnv("PORT", "3001"),
		UploadsDir: getEnv("UPLOADS_DIR", "uploads"),

		Provider:     provider,
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OllamaURL:    getEnv("OLLAMA_URL", getEnv("OLLAMA_HOST", "http://localhost:11434")),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),

		MaxTokens:     getInt("INSPECTOR_MAX_TOKENS", 1000),
		Timeout:       getDuration("INSPECTOR_TIMEOUT", 120*time.Second),
		MaxUploadMB:   int64(getInt("INSPECTOR_MAX_UPLOAD_MB", 32)),
		ThumbnailSize: getInt("THUMBNAIL_SIZE", 150),
		HistorySize:   getInt("INSPECTOR_HISTORY", 100),
	}
	cfg.Model = cfg.modelFromEnv()

	return cfg
}

// WithProvider returns a copy of c using provider and model. An empty model
// selects the provider's configured default.
func (c Config) WithProvider(provider, model string) Config {
	if provider != "" {
		c.Provider = strings.ToLower(provider)
		c.Model = c.modelFromEnv()
	}
	if model != "" {
		c.Model = model
	}
	return c
}

func (c Config) modelFromEnv() string {
	switch c.Provider {
	case providers.OpenAI:
		return getEnv("OPENAI_MODEL", providers.DefaultModel(providers.OpenAI))
	case providers.Ollama:
		return getEnv("OLLAMA_MODEL", providers.DefaultModel(providers.Ollama))
	case providers.Gemini:
		return getEnv("GEMINI_MODEL", providers.DefaultModel(providers.Gemini))
	default:
		return ""
	}
}

// Validate checks that the selected provider can be used
func (c Config) Validate() error {
	switch c.Provider {
	case providers.OpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case providers.Gemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case providers.Ollama:
	default:
		return providers.ErrUnsupported{Name: c.Provider}
	}

	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.ThumbnailSize <= 0 {
		return fmt.Errorf("thumbnail size must be positive, got %d", c.ThumbnailSize)
	}
	return nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("Ignoring invalid integer setting", "key", k, "value", v)
		return def
	}
	return n
}

func getDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("Ignoring invalid duration setting", "key", k, "value", v)
		return def
	}
	return d
}

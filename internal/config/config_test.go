package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "UPLOADS_DIR", "INSPECTION_PROVIDER", "OPENAI_MODEL", "OPENAI_BASE_URL",
		"OLLAMA_URL", "OLLAMA_HOST", "INSPECTOR_MAX_TOKENS", "INSPECTOR_TIMEOUT",
		"THUMBNAIL_SIZE", "INSPECTOR_HISTORY", "INSPECTOR_MAX_UPLOAD_MB",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	require.Equal(t, "3001", cfg.Port)
	require.Equal(t, "uploads", cfg.UploadsDir)
	require.Equal(t, "openai", cfg.Provider)
	require.Equal(t, "gpt-4o", cfg.Model)
	require.Equal(t, "https://api.openai.com", cfg.OpenAIURL)
	require.Equal(t, "http://localhost:11434", cfg.OllamaURL)
	require.Equal(t, 1000, cfg.MaxTokens)
	require.Equal(t, 120*time.Second, cfg.Timeout)
	require.Equal(t, 150, cfg.ThumbnailSize)
	require.Equal(t, 100, cfg.HistorySize)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("INSPECTION_PROVIDER", "Ollama")
	t.Setenv("OLLAMA_URL", "")
	t.Setenv("OLLAMA_HOST", "http://gpu:11434")
	t.Setenv("OLLAMA_MODEL", "llava")
	t.Setenv("INSPECTOR_TIMEOUT", "5s")
	t.Setenv("INSPECTOR_MAX_TOKENS", "not-a-number")

	cfg := Load()
	require.Equal(t, "ollama", cfg.Provider)
	require.Equal(t, "llava", cfg.Model)
	require.Equal(t, "http://gpu:11434", cfg.OllamaURL)
	require.Equal(t, 5*time.Second, cfg.Timeout)
	require.Equal(t, 1000, cfg.MaxTokens)
}

func TestWithProvider(t *testing.T) {
	t.Setenv("GEMINI_MODEL", "")
	cfg := Config{Provider: "openai", Model: "gpt-4o"}

	got := cfg.WithProvider("gemini", "")
	require.Equal(t, "gemini", got.Provider)
	require.Equal(t, "gemini-1.5-flash", got.Model)

	got = cfg.WithProvider("", "gpt-4o-mini")
	require.Equal(t, "openai", got.Provider)
	require.Equal(t, "gpt-4o-mini", got.Model)

	// original is untouched
	require.Equal(t, "gpt-4o", cfg.Model)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "openai without key",
			cfg:     Config{Provider: "openai", MaxTokens: 1000, ThumbnailSize: 150},
			wantErr: "OPENAI_API_KEY",
		},
		{
			name: "openai with key",
			cfg:  Config{Provider: "openai", OpenAIAPIKey: "sk-test", MaxTokens: 1000, ThumbnailSize: 150},
		},
		{
			name: "ollama needs no key",
			cfg:  Config{Provider: "ollama", MaxTokens: 1000, ThumbnailSize: 150},
		},
		{
			name:    "gemini without key",
			cfg:     Config{Provider: "gemini", MaxTokens: 1000, ThumbnailSize: 150},
			wantErr: "GEMINI_API_KEY",
		},
		{
			name:    "unknown provider",
			cfg:     Config{Provider: "claude", MaxTokens: 1000, ThumbnailSize: 150},
			wantErr: "unsupported provider: claude",
		},
		{
			name:    "zero tokens",
			cfg:     Config{Provider: "ollama", ThumbnailSize: 150},
			wantErr: "max tokens",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

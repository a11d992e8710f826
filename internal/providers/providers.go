package providers

import (
	"context"
	"fmt"
)

// Config represents the configuration for an LLM provider
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	// Image is sent alongside Prompt in the same user turn when set
	Image     []byte
	MIMEType  string
	MaxTokens int
}

// Provider defines the interface for an LLM provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}

// Names of the supported providers
const (
	OpenAI = "openai"
	Ollama = "ollama"
	Gemini = "gemini"
)

// DefaultModel returns the model used when none is configured for provider
func DefaultModel(provider string) string {
	switch provider {
	case OpenAI:
		return "gpt-4o"
	case Ollama:
		return "mistral-small3.2:24b"
	case Gemini:
		return "gemini-1.5-flash"
	default:
		return ""
	}
}

// ErrUnsupported is returned for an unknown provider name
type ErrUnsupported struct {
	Name string
}

func (e ErrUnsupported) Error() string {
	return fmt.Sprintf("unsupported provider: %s", e.Name)
}

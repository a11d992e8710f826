package inspection

import (
	"context"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/inspector/internal/config"
	"github.com/lehigh-university-libraries/inspector/internal/gemini"
	"github.com/lehigh-university-libraries/inspector/internal/ollama"
	"github.com/lehigh-university-libraries/inspector/internal/openai"
	"github.com/lehigh-university-libraries/inspector/internal/providers"
)

// NewProvider builds the provider selected by cfg. The returned func releases
// any resources the provider holds and is always safe to call.
func NewProvider(ctx context.Context, cfg config.Config) (providers.Provider, func() error, error) {
	noop := func() error { return nil }
	client := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case providers.OpenAI:
		return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIURL, client), noop, nil
	case providers.Ollama:
		return ollama.New(cfg.OllamaURL, client), noop, nil
	case providers.Gemini:
		g, err := gemini.New(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, noop, err
		}
		return timeoutProvider{Provider: g, timeout: cfg.Timeout}, g.Close, nil
	default:
		return nil, noop, providers.ErrUnsupported{Name: cfg.Provider}
	}
}

// NewServiceFromConfig validates cfg and wires a Service to the provider it selects
func NewServiceFromConfig(ctx context.Context, cfg config.Config) (*Service, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, func() error { return nil }, err
	}

	provider, closeFn, err := NewProvider(ctx, cfg)
	if err != nil {
		return nil, closeFn, err
	}

	return NewService(provider, cfg.Provider, cfg.Model, cfg.MaxTokens), closeFn, nil
}

// timeoutProvider bounds each call for providers that do not take an http.Client
type timeoutProvider struct {
	providers.Provider
	timeout time.Duration
}

func (p timeoutProvider) ExtractText(ctx context.Context, c providers.Config) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.Provider.ExtractText(ctx, c)
}

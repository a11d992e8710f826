package inspection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/inspector/internal/models"
	"github.com/lehigh-university-libraries/inspector/internal/providers"
)

// ErrEmptyResponse is returned when the model answers with no text
var ErrEmptyResponse = errors.New("empty response from model")

// Service inspects images for defects through a vision-capable model
type Service struct {
	provider  providers.Provider
	name      string
	model     string
	maxTokens int
}

// NewService creates a new inspection service. name is the provider name, used for logging.
func NewService(provider providers.Provider, name, model string, maxTokens int) *Service {
	return &Service{
		provider:  provider,
		name:      name,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Provider returns the provider name
func (s *Service) Provider() string { return s.name }

// Model returns the model identifier sent with every request
func (s *Service) Model() string { return s.model }

// Analyze sends one image to the model and normalizes its reply
func (s *Service) Analyze(ctx context.Context, image []byte) (models.InspectionResult, error) {
	if len(image) == 0 {
		return models.InspectionResult{}, fmt.Errorf("image is empty")
	}

	mime := DetectMIMEType(image)
	text, err := s.provider.ExtractText(ctx, providers.Config{
		Model:     s.model,
		Prompt:    Prompt,
		Image:     image,
		MIMEType:  mime,
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return models.InspectionResult{}, fmt.Errorf("%s request failed: %w", s.name, err)
	}
	if strings.TrimSpace(text) == "" {
		return models.InspectionResult{}, ErrEmptyResponse
	}

	slog.Debug("Model response received", "provider", s.name, "model", s.model, "mime", mime, "length", len(text))

	return ParseResponse(text)
}

// Inspect analyzes image and never fails: any error is turned into a
// sentinel result with defective set to "error".
func (s *Service) Inspect(ctx context.Context, image []byte) models.InspectionResult {
	result, err := s.Analyze(ctx, image)
	if err != nil {
		slog.Error("Error analyzing image", "provider", s.name, "model", s.model, "err", err)
		return models.FailedInspection(err)
	}
	return result
}

// InspectFile reads the image at path and inspects it. Read errors are
// reported through the sentinel result like any other inspection failure.
func (s *Service) InspectFile(ctx context.Context, path string) models.InspectionResult {
	image, err := os.ReadFile(path)
	if err != nil {
		slog.Error("Error reading image", "path", path, "err", err)
		return models.FailedInspection(fmt.Errorf("failed to read image: %w", err))
	}
	return s.Inspect(ctx, image)
}

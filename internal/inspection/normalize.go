package inspection

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/inspector/internal/models"
)

var fencePattern = regexp.MustCompile("```json\\n?|\\n?```")

// StripFences removes markdown code fence markers and trims the remainder
func StripFences(text string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))
}

// ExtractJSON parses the JSON object embedded in a model reply
func ExtractJSON(text string) (map[string]any, error) {
	clean := StripFences(text)

	var result map[string]any
	if err := json.Unmarshal([]byte(clean), &result); err != nil {
		slog.Error("Error parsing JSON", "text", clean, "err", err)
		return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
	}
	if result == nil {
		slog.Error("Error parsing JSON", "text", clean)
		return nil, fmt.Errorf("model response is not a JSON object: %s", clean)
	}

	return result, nil
}

// Normalize maps a parsed reply onto an InspectionResult. Missing, null and
// empty fields take their defaults; defective is lower-cased but not otherwise
// constrained.
func Normalize(fields map[string]any) models.InspectionResult {
	result := models.InspectionResult{
		Object:      models.DefaultObject,
		Defective:   models.DefaultDefective,
		Explanation: models.DefaultExplanation,
	}

	if v := field(fields, "object"); v != "" {
		result.Object = v
	}
	if v := field(fields, "defective"); v != "" {
		result.Defective = strings.ToLower(v)
	}
	if v := field(fields, "explanation"); v != "" {
		result.Explanation = v
	}

	return result
}

// ParseResponse extracts and normalizes a raw model reply
func ParseResponse(text string) (models.InspectionResult, error) {
	fields, err := ExtractJSON(text)
	if err != nil {
		return models.InspectionResult{}, err
	}
	return Normalize(fields), nil
}

func field(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		// numbers, booleans and nested values keep their JSON spelling
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

package eval

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/inspector/internal/images"
	"github.com/parquet-go/parquet-go"
)

// Sample is one labeled image of an evaluation dataset
type Sample struct {
	Image     string `json:"image" yaml:"image" parquet:"image"`
	Defective string `json:"defective" yaml:"defective" parquet:"defective"`
	Object    string `json:"object,omitempty" yaml:"object,omitempty" parquet:"object,optional"`
}

// LoadDataset loads labeled samples from a JSONL or Parquet file. Relative
// image paths are resolved against the dataset's directory.
func LoadDataset(path string) ([]Sample, error) {
	var (
		samples []Sample
		err     error
	)

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".parquet":
		samples, err = parquet.ReadFile[Sample](path)
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet file: %w", err)
		}
	case ".jsonl", ".json":
		samples, err = loadJSONL(path)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}

	base := filepath.Dir(path)
	for i := range samples {
		s := &samples[i]
		s.Defective = strings.ToLower(strings.TrimSpace(s.Defective))
		if s.Image == "" {
			return nil, fmt.Errorf("sample %d has no image", i+1)
		}
		if s.Defective != "yes" && s.Defective != "no" {
			return nil, fmt.Errorf("sample %d (%s) has label %q, want yes or no", i+1, s.Image, s.Defective)
		}
		if !images.IsURL(s.Image) && !filepath.IsAbs(s.Image) {
			s.Image = filepath.Join(base, s.Image)
		}
	}

	slog.Info("Dataset loaded", "path", path, "samples", len(samples))
	return samples, nil
}

func loadJSONL(path string) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var samples []Sample
	scanner := bufio.NewScanner(file)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var sample Sample
		if err := json.Unmarshal([]byte(line), &sample); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		samples = append(samples, sample)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return samples, nil
}

package eval

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RunConfig describes how an evaluation was produced
type RunConfig struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	DatasetPath string `yaml:"datasetpath"`
	SampleSize  int    `yaml:"samplesize"`
	Timestamp   string `yaml:"timestamp"`
}

// SampleResult is the per-image record written to the results file
type SampleResult struct {
	Image             string `yaml:"image"`
	ExpectedDefective string `yaml:"expecteddefective"`
	ExpectedObject    string `yaml:"expectedobject,omitempty"`
	Object            string `yaml:"object"`
	Defective         string `yaml:"defective"`
	Explanation       string `yaml:"explanation"`
	Correct           bool   `yaml:"correct"`
	ProcessingMillis  int64  `yaml:"processingms"`
}

// Results is the complete evaluation file
type Results struct {
	Config  RunConfig      `yaml:"config"`
	Summary Summary        `yaml:"summary"`
	Results []SampleResult `yaml:"results"`
}

// NewResults assembles the results file for a finished run
func NewResults(datasetPath string, summary Summary, outcomes []Outcome) Results {
	r := Results{
		Config: RunConfig{
			Provider:    summary.Provider,
			Model:       summary.Model,
			DatasetPath: datasetPath,
			SampleSize:  len(outcomes),
			Timestamp:   time.Now().Format("2006-01-02_15-04-05"),
		},
		Summary: summary,
		Results: make([]SampleResult, 0, len(outcomes)),
	}

	for _, o := range outcomes {
		r.Results = append(r.Results, SampleResult{
			Image:             o.Sample.Image,
			ExpectedDefective: o.Sample.Defective,
			ExpectedObject:    o.Sample.Object,
			Object:            o.Result.Object,
			Defective:         o.Result.Defective,
			Explanation:       o.Result.Explanation,
			Correct:           o.Result.Defective == o.Sample.Defective,
			ProcessingMillis:  o.ProcessingTime.Milliseconds(),
		})
	}

	return r
}

// SaveToYAML writes results into dir as <provider>_<model>_<timestamp>.yaml
// and returns the file path.
func SaveToYAML(dir string, r Results) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	model := strings.NewReplacer("/", "-", ":", "-", " ", "-").Replace(r.Config.Model)
	filename := fmt.Sprintf("%s_%s_%s.yaml", r.Config.Provider, model, r.Config.Timestamp)
	path := filepath.Join(dir, filename)

	data, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	return path, nil
}

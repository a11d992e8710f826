package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/inspector/internal/models"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Entry is the inspection outcome for one file
type Entry struct {
	File        string `json:"file" yaml:"file" parquet:"file"`
	Object      string `json:"object" yaml:"object" parquet:"object"`
	Defective   string `json:"defective" yaml:"defective" parquet:"defective"`
	Explanation string `json:"explanation" yaml:"explanation" parquet:"explanation"`
}

// Report collects the entries of one inspect run
type Report struct {
	Provider  string  `json:"provider" yaml:"provider"`
	Model     string  `json:"model" yaml:"model"`
	Timestamp string  `json:"timestamp" yaml:"timestamp"`
	Entries   []Entry `json:"results" yaml:"results"`
}

// Add appends the result for file
func (r *Report) Add(file string, result models.InspectionResult) {
	r.Entries = append(r.Entries, Entry{
		File:        file,
		Object:      result.Object,
		Defective:   result.Defective,
		Explanation: result.Explanation,
	})
}

// Counts returns how many entries were defective, sound, and failed
func (r *Report) Counts() (defective, sound, failed int) {
	for _, e := range r.Entries {
		switch e.Defective {
		case "yes":
			defective++
		case "no":
			sound++
		case models.DefectiveError:
			failed++
		}
	}
	return defective, sound, failed
}

// Write renders the report to w in the given format: text, json, yaml or csv
func Write(w io.Writer, format string, r *Report) error {
	switch format {
	case "text", "":
		return writeText(w, r)
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(r)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(r)
	case "csv":
		return writeCSV(w, r)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// Save writes the report to path, choosing the encoding from the extension
func Save(path string, r *Report) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".parquet" {
		if err := parquet.WriteFile(path, r.Entries); err != nil {
			return fmt.Errorf("failed to write parquet file: %w", err)
		}
		return nil
	}

	format := map[string]string{
		".json": "json",
		".yaml": "yaml",
		".yml":  "yaml",
		".csv":  "csv",
		".txt":  "text",
	}[ext]
	if format == "" {
		return fmt.Errorf("unsupported output file extension: %s (supported: .parquet, .json, .yaml, .csv, .txt)", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(f, format, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeText(w io.Writer, r *Report) error {
	defective, sound, failed := r.Counts()

	var b strings.Builder
	fmt.Fprintln(&b, "========================================")
	fmt.Fprintln(&b, "Defect Inspection Report")
	fmt.Fprintln(&b, "========================================")
	fmt.Fprintf(&b, "Provider: %s\n", r.Provider)
	fmt.Fprintf(&b, "Model:    %s\n", r.Model)
	fmt.Fprintf(&b, "Images:   %d (defective %d, sound %d, failed %d)\n", len(r.Entries), defective, sound, failed)

	for i, e := range r.Entries {
		fmt.Fprintf(&b, "\n[%d] %s\n", i+1, e.File)
		if e.Defective == models.DefectiveError {
			fmt.Fprintf(&b, "  Error: %s\n", e.Explanation)
			continue
		}
		fmt.Fprintf(&b, "  Object:      %s\n", e.Object)
		fmt.Fprintf(&b, "  Defective:   %s\n", e.Defective)
		fmt.Fprintf(&b, "  Explanation: %s\n", e.Explanation)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeCSV(w io.Writer, r *Report) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"File", "Object", "Defective", "Explanation"}); err != nil {
		return err
	}
	for _, e := range r.Entries {
		if err := writer.Write([]string{e.File, e.Object, e.Defective, e.Explanation}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

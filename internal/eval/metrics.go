package eval

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/inspector/internal/models"
)

// Outcome pairs a labeled sample with what the model returned for it
type Outcome struct {
	Sample         Sample
	Result         models.InspectionResult
	ProcessingTime time.Duration
}

// Summary is the aggregate score of an evaluation run. "yes" (defective) is
// the positive class.
type Summary struct {
	Provider string `json:"provider" yaml:"provider"`
	Model    string `json:"model" yaml:"model"`

	Total   int `json:"total" yaml:"total"`
	Failed  int `json:"failed" yaml:"failed"`
	Unknown int `json:"unknown" yaml:"unknown"`

	TruePositive  int `json:"true_positive" yaml:"true_positive"`
	FalsePositive int `json:"false_positive" yaml:"false_positive"`
	TrueNegative  int `json:"true_negative" yaml:"true_negative"`
	FalseNegative int `json:"false_negative" yaml:"false_negative"`

	Accuracy  float64 `json:"accuracy" yaml:"accuracy"`
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1        float64 `json:"f1" yaml:"f1"`

	ObjectLabeled int     `json:"object_labeled" yaml:"object_labeled"`
	ObjectMatches int     `json:"object_matches" yaml:"object_matches"`
	ObjectScore   float64 `json:"object_score" yaml:"object_score"`

	AverageProcessingTime time.Duration `json:"average_processing_time" yaml:"average_processing_time"`
}

// Summarize scores outcomes against their labels. Failed inspections and
// verdicts other than yes/no are counted but excluded from the confusion matrix.
func Summarize(provider, model string, outcomes []Outcome) Summary {
	s := Summary{Provider: provider, Model: model, Total: len(outcomes)}

	var totalDuration time.Duration
	for _, o := range outcomes {
		totalDuration += o.ProcessingTime

		if o.Sample.Object != "" && !o.Result.Failed() {
			s.ObjectLabeled++
			if ObjectMatches(o.Sample.Object, o.Result.Object) {
				s.ObjectMatches++
			}
		}

		switch {
		case o.Result.Failed():
			s.Failed++
		case o.Result.Defective == "yes" && o.Sample.Defective == "yes":
			s.TruePositive++
		case o.Result.Defective == "yes":
			s.FalsePositive++
		case o.Result.Defective == "no" && o.Sample.Defective == "no":
			s.TrueNegative++
		case o.Result.Defective == "no":
			s.FalseNegative++
		default:
			s.Unknown++
		}
	}

	scored := s.TruePositive + s.FalsePositive + s.TrueNegative + s.FalseNegative
	s.Accuracy = ratio(s.TruePositive+s.TrueNegative, scored)
	s.Precision = ratio(s.TruePositive, s.TruePositive+s.FalsePositive)
	s.Recall = ratio(s.TruePositive, s.TruePositive+s.FalseNegative)
	if s.Precision+s.Recall > 0 {
		s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	s.ObjectScore = ratio(s.ObjectMatches, s.ObjectLabeled)

	if len(outcomes) > 0 {
		s.AverageProcessingTime = totalDuration / time.Duration(len(outcomes))
	}

	return s
}

// ObjectMatches reports whether the model's object name agrees with the label.
// Either may contain the other, ignoring case.
func ObjectMatches(expected, got string) bool {
	expected = strings.ToLower(strings.TrimSpace(expected))
	got = strings.ToLower(strings.TrimSpace(got))
	if expected == "" || got == "" || got == models.DefaultObject {
		return false
	}
	return strings.Contains(got, expected) || strings.Contains(expected, got)
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// Write prints a human readable summary
func (s Summary) Write(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintln(&b, "========================================")
	fmt.Fprintln(&b, "Defect Detection Evaluation")
	fmt.Fprintln(&b, "========================================")
	fmt.Fprintf(&b, "Provider: %s\n", s.Provider)
	fmt.Fprintf(&b, "Model:    %s\n", s.Model)
	fmt.Fprintf(&b, "Samples:  %d (failed %d, unknown verdict %d)\n\n", s.Total, s.Failed, s.Unknown)

	fmt.Fprintln(&b, "Confusion matrix (positive = defective):")
	fmt.Fprintf(&b, "  TP %-5d FP %-5d\n", s.TruePositive, s.FalsePositive)
	fmt.Fprintf(&b, "  FN %-5d TN %-5d\n\n", s.FalseNegative, s.TrueNegative)

	fmt.Fprintf(&b, "Accuracy:  %.2f%%\n", s.Accuracy*100)
	fmt.Fprintf(&b, "Precision: %.2f%%\n", s.Precision*100)
	fmt.Fprintf(&b, "Recall:    %.2f%%\n", s.Recall*100)
	fmt.Fprintf(&b, "F1:        %.3f\n", s.F1)
	if s.ObjectLabeled > 0 {
		fmt.Fprintf(&b, "Object:    %d/%d (%.2f%%)\n", s.ObjectMatches, s.ObjectLabeled, s.ObjectScore*100)
	}
	fmt.Fprintf(&b, "Avg time:  %v\n", s.AverageProcessingTime.Round(time.Millisecond))

	_, err := io.WriteString(w, b.String())
	return err
}

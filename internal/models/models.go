package models

import "time"

const (
	DefaultObject      = "unknown"
	DefaultDefective   = "unknown"
	DefaultExplanation = "No explanation provided"

	// DefectiveError marks a result produced because inspection failed.
	DefectiveError = "error"
)

// InspectionResult is the normalized model verdict for one image
type InspectionResult struct {
	Object      string `json:"object" yaml:"object" parquet:"object"`
	Defective   string `json:"defective" yaml:"defective" parquet:"defective"`
	Explanation string `json:"explanation" yaml:"explanation" parquet:"explanation"`
}

// Failed reports whether the result is a sentinel for a failed inspection
func (r InspectionResult) Failed() bool {
	return r.Defective == DefectiveError
}

// FailedInspection builds the sentinel result substituted when an image could not be inspected
func FailedInspection(err error) InspectionResult {
	return InspectionResult{
		Object:      DefaultObject,
		Defective:   DefectiveError,
		Explanation: "Analysis failed: " + err.Error(),
	}
}

// AnalyzedImage is one entry of a batch response
type AnalyzedImage struct {
	ImageName     string           `json:"imageName"`
	ImagePath     string           `json:"imagePath"`
	ThumbnailPath string           `json:"thumbnailPath"`
	Analysis      InspectionResult `json:"analysis"`
}

// BatchResponse is the body returned by POST /api/analyze
type BatchResponse struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Results []AnalyzedImage `json:"results"`
}

// Batch is a stored batch response, kept for later retrieval
type Batch struct {
	ID        string          `json:"id"`
	Provider  string          `json:"provider,omitempty"`
	Model     string          `json:"model,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Count     int             `json:"count"`
	Results   []AnalyzedImage `json:"results"`
}

// BatchSummary is the listing form of a Batch
type BatchSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Count     int       `json:"count"`
	Failed    int       `json:"failed"`
}

// ErrorResponse is the JSON body written for every non-2xx API response
type ErrorResponse struct {
	Error string `json:"error"`
}

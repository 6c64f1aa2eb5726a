package resumes

import (
	"time"

	"resume-processor/internal/extract"
	"resume-processor/internal/harvest"
)

// Record is a persisted processing result. Records are insert-only.
type Record struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	ResumeURL       string         `json:"resumeUrl"`
	SummaryOfResume string         `json:"summaryOfResume"`
	StructuredData  map[string]any `json:"structuredData"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// NewRecord is the insert payload; the repo assigns ID defaults and CreatedAt.
type NewRecord struct {
	ID              string
	Name            string
	ResumeURL       string
	SummaryOfResume string
	StructuredData  map[string]any
}

// ProcessRequest references an already-uploaded document.
type ProcessRequest struct {
	FileURL     string `json:"fileUrl"`
	FileName    string `json:"fileName"`
	UserName    string `json:"userName"`
	MimeType    string `json:"mimeType"`
	FileSize    int64  `json:"fileSize"`
	ExtractJSON *bool  `json:"extractJSON"`
}

// WantsExtraction reports whether structured extraction was requested. Defaults to true.
func (r ProcessRequest) WantsExtraction() bool {
	return r.ExtractJSON == nil || *r.ExtractJSON
}

// Usage splits token consumption across the two completions.
type Usage struct {
	Summary    int `json:"summary"`
	Extraction int `json:"extraction"`
	Total      int `json:"total"`
}

// Outcome is everything a successful pipeline run produced.
type Outcome struct {
	Record         Record
	Summary        string
	StructuredData map[string]any
	// Extracted is false when the caller opted out of structured extraction.
	Extracted   bool
	URLs        harvest.Result
	Document    extract.Result
	FileSize    int64
	Usage       Usage
	Warnings    []string
	ProcessedAt time.Time
	Duration    time.Duration
}

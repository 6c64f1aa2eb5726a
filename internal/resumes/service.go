package resumes

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-processor/internal/extract"
	"resume-processor/internal/harvest"
	"resume-processor/internal/llm"
	"resume-processor/internal/queue"
	"resume-processor/internal/shared/metrics"
	"resume-processor/internal/shared/storage/object"
	"resume-processor/internal/shared/telemetry"
	"resume-processor/internal/shared/util"
)

// Sampling parameters for the two completions.
var (
	SummaryOptions    = llm.Options{Temperature: 0.3, MaxTokens: 1024, TopP: 0.9}
	ExtractionOptions = llm.Options{Temperature: 0.1, MaxTokens: 4096, TopP: 0.9}
)

const fallbackName = "Untitled Resume"

// Service runs the ingestion pipeline and reads stored records back.
type Service struct {
	Repo      Repo
	Fetcher   object.Fetcher
	Extractor *extract.Extractor
	LLM       llm.Completer
	Provider  string
	Model     string
	// Events is optional; publish failures never fail a request.
	Events      queue.Client
	MaxFileSize int64
	// AllowPartialExtraction keeps the summary when structured extraction fails.
	AllowPartialExtraction bool

	Now func() time.Time
}

// Configured reports whether a completion backend is available.
func (s *Service) Configured() bool {
	return s.LLM != nil
}

// Process fetches, extracts, analyzes and stores one document. The caller's
// cancellation is detached so a dropped client does not abandon paid completions.
func (s *Service) Process(ctx context.Context, req ProcessRequest) (out Outcome, err error) {
	ctx = context.WithoutCancel(ctx)
	start := s.now()
	requestID := telemetry.RequestIDFromContext(ctx)
	defer func() {
		if err != nil {
			code := Classify(err).Code
			metrics.IncResumeFailed(code)
			telemetry.Warn("resume.process", map[string]any{
				"request_id":  requestID,
				"stage":       "failed",
				"code":        code,
				"error":       err.Error(),
				"duration_ms": s.now().Sub(start).Milliseconds(),
			})
		}
	}()

	if !s.Configured() {
		return Outcome{}, llm.ErrNoProvider
	}
	req, err = s.validate(req)
	if err != nil {
		return Outcome{}, err
	}

	blob, err := s.Fetcher.Fetch(ctx, req.FileURL)
	if err != nil {
		return Outcome{}, err
	}
	if max := s.maxFileSize(); blob.Size > max {
		return Outcome{}, object.TooLarge(blob.Size, max)
	}

	// A MIME type named in the request overrides the one the store reported.
	mimeHint := firstNonEmpty(req.MimeType, blob.ContentType)
	doc, err := s.Extractor.Extract(ctx, blob.Data, mimeHint, req.FileName)
	if err != nil {
		return Outcome{}, err
	}
	telemetry.Info("resume.process", map[string]any{
		"request_id":   requestID,
		"stage":        "extracted",
		"kind":         doc.Kind,
		"bytes":        blob.Size,
		"content_type": mimeHint,
		"length":       doc.Length,
		"truncated":    doc.Truncated,
		"pages":        doc.PageCount,
	})

	urls := harvest.Harvest(doc.Text)
	summary, extraction, summaryErr, extractionErr := s.complete(ctx, doc.Text, req.WantsExtraction())
	if summaryErr != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrSummarizationFailed, summaryErr)
	}
	if strings.TrimSpace(summary.Text) == "" {
		return Outcome{}, fmt.Errorf("%w: empty summary from %s", ErrSummarizationFailed, s.Provider)
	}

	var warnings []string
	warnings = append(warnings, doc.Warnings...)
	var structured map[string]any
	if req.WantsExtraction() {
		if extractionErr == nil {
			structured, extractionErr = Reconcile(extraction.Text, urls)
		}
		if extractionErr != nil {
			if !s.AllowPartialExtraction {
				return Outcome{}, fmt.Errorf("structured extraction: %w", extractionErr)
			}
			warnings = append(warnings, "Structured extraction failed: "+extractionErr.Error())
			structured = nil
		}
	}
	if doc.Truncated {
		warnings = append(warnings, fmt.Sprintf("Document text was truncated to %d characters", doc.Length))
	}

	rec, err := s.Repo.Insert(ctx, NewRecord{
		ID:              uuid.NewString(),
		Name:            recordName(req),
		ResumeURL:       req.FileURL,
		SummaryOfResume: summary.Text,
		StructuredData:  structured,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	processedAt := s.now()
	s.publish(ctx, rec, requestID, processedAt)

	duration := processedAt.Sub(start)
	metrics.IncResumeProcessed()
	metrics.ObserveProcessingDurationMs(float64(duration.Milliseconds()))
	telemetry.Info("resume.process", map[string]any{
		"request_id":        requestID,
		"stage":             "persisted",
		"record_id":         rec.ID,
		"provider":          s.Provider,
		"model":             s.Model,
		"summary_tokens":    summary.TokensUsed,
		"extraction_tokens": extraction.TokensUsed,
		"structured":        structured != nil,
		"duration_ms":       duration.Milliseconds(),
	})

	return Outcome{
		Record:         rec,
		Summary:        summary.Text,
		StructuredData: structured,
		Extracted:      req.WantsExtraction(),
		URLs:           urls,
		Document:       doc,
		FileSize:       blob.Size,
		Usage: Usage{
			Summary:    summary.TokensUsed,
			Extraction: extraction.TokensUsed,
			Total:      summary.TokensUsed + extraction.TokensUsed,
		},
		Warnings:    warnings,
		ProcessedAt: processedAt,
		Duration:    duration,
	}, nil
}

// Get returns a stored record. Malformed IDs are reported as not found.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return Record{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, strings.TrimSpace(id))
}

// List returns stored records newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Record, error) {
	return s.Repo.List(ctx, limit, offset)
}

func (s *Service) validate(req ProcessRequest) (ProcessRequest, error) {
	req.FileURL = strings.TrimSpace(req.FileURL)
	req.FileName = strings.TrimSpace(req.FileName)
	req.MimeType = strings.TrimSpace(req.MimeType)
	req.UserName = strings.TrimSpace(req.UserName)

	if req.FileURL == "" || req.FileName == "" {
		return req, fmt.Errorf("%w: fileUrl and fileName are required", ErrMissingInput)
	}
	if max := s.maxFileSize(); req.FileSize > max {
		return req, object.TooLarge(req.FileSize, max)
	}
	// Legacy files are rejected before downloading anything. A name without a
	// known extension waits for the content type the store reports, unless the
	// request already named a MIME type that cannot match.
	kind, err := extract.ResolveKind(req.MimeType, req.FileName)
	switch {
	case err == nil && kind == extract.KindDOC:
		return req, extract.ErrLegacyFormatUnsupported
	case err != nil && req.MimeType != "":
		return req, err
	}
	return req, nil
}

// complete runs the summary and, when wanted, the extraction concurrently and
// waits for both. A failure in one does not cancel the other.
func (s *Service) complete(ctx context.Context, text string, wantExtraction bool) (summary, extraction llm.Completion, summaryErr, extractionErr error) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		summary, summaryErr = s.LLM.Complete(ctx, llm.BuildSummaryPrompt(text), SummaryOptions)
	}()
	if wantExtraction {
		wg.Add(1)
		go func() {
			defer wg.Done()
			extraction, extractionErr = s.LLM.Complete(ctx, llm.BuildExtractionPrompt(text), ExtractionOptions)
		}()
	}
	wg.Wait()
	return summary, extraction, summaryErr, extractionErr
}

func (s *Service) publish(ctx context.Context, rec Record, requestID string, processedAt time.Time) {
	if s.Events == nil {
		return
	}
	err := s.Events.Send(ctx, queue.Message{
		RecordID:          rec.ID,
		RequestID:         requestID,
		Name:              rec.Name,
		ResumeURL:         rec.ResumeURL,
		HasStructuredData: rec.StructuredData != nil,
		ProcessedAt:       processedAt.UTC().Format(time.RFC3339),
		Version:           queue.MessageVersion,
	})
	if err != nil {
		metrics.IncEventsPublishFailed()
		telemetry.Warn("events.publish_failed", map[string]any{
			"request_id": requestID,
			"record_id":  rec.ID,
			"error":      err.Error(),
		})
	}
}

func (s *Service) maxFileSize() int64 {
	if s.MaxFileSize > 0 {
		return s.MaxFileSize
	}
	return object.DefaultMaxBytes
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func recordName(req ProcessRequest) string {
	if req.UserName != "" {
		return req.UserName
	}
	if name := util.DisplayName(req.FileName); name != "" {
		return name
	}
	return fallbackName
}

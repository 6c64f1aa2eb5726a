package resumes

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"resume-processor/internal/extract"
	"resume-processor/internal/harvest"
	"resume-processor/internal/llm"
	"resume-processor/internal/shared/storage/object"
)

func TestProcessPDFEndToEnd(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Process(context.Background(), ProcessRequest{FileURL: pdfURL, FileName: "alice.pdf"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if out.Document.Kind != extract.KindPDF || out.Document.PageCount != 2 {
		t.Fatalf("unexpected document: %+v", out.Document)
	}
	if out.Summary == "" || out.Usage.Total != 420 {
		t.Fatalf("unexpected summary/usage: %q %+v", out.Summary, out.Usage)
	}

	urls, ok := out.StructuredData["extractedUrls"].(harvest.ByCategory)
	if !ok {
		t.Fatalf("expected extractedUrls, got %T", out.StructuredData["extractedUrls"])
	}
	if !reflect.DeepEqual(urls.GitHub, []string{"github.com/alice"}) {
		t.Fatalf("unexpected github urls: %v", urls.GitHub)
	}
	contact := out.StructuredData["personalInfo"].(map[string]any)["contact"].(map[string]any)
	if contact["github"] != "github.com/alice" || contact["email"] != "alice@example.com" {
		t.Fatalf("unexpected contact: %v", contact)
	}

	stored, err := f.repo.GetByID(context.Background(), out.Record.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Name != "alice" || stored.ResumeURL != pdfURL || stored.SummaryOfResume != out.Summary {
		t.Fatalf("unexpected stored record: %+v", stored)
	}
	if stored.CreatedAt.IsZero() {
		t.Fatalf("expected server-assigned createdAt")
	}

	if len(f.events.msgs) != 1 || f.events.msgs[0].RecordID != out.Record.ID || !f.events.msgs[0].HasStructuredData {
		t.Fatalf("unexpected events: %+v", f.events.msgs)
	}
	if s, e := f.completer.calls(); s != 1 || e != 1 {
		t.Fatalf("expected one call per prompt, got summary=%d extraction=%d", s, e)
	}
}

func TestProcessLegacyDocMakesNoCompletionCalls(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Process(context.Background(), ProcessRequest{FileURL: docURL, FileName: "alice.doc"})
	if !errors.Is(err, extract.ErrLegacyFormatUnsupported) {
		t.Fatalf("expected ErrLegacyFormatUnsupported, got %v", err)
	}
	if s, e := f.completer.calls(); s != 0 || e != 0 {
		t.Fatalf("expected no completion calls, got summary=%d extraction=%d", s, e)
	}
	if f.fetcher.calls != 0 {
		t.Fatalf("legacy files are rejected before fetching, got %d fetches", f.fetcher.calls)
	}
	if f.repo.Len() != 0 {
		t.Fatalf("nothing should be persisted")
	}
}

func TestProcessSummaryFailureIsTerminal(t *testing.T) {
	f := newFixture(t)
	f.completer.summary = func() (llm.Completion, error) {
		return llm.Completion{}, &llm.APIError{Provider: "openrouter", Status: 503, Message: "upstream overloaded"}
	}

	_, err := f.svc.Process(context.Background(), ProcessRequest{FileURL: pdfURL, FileName: "alice.pdf"})
	if !errors.Is(err, ErrSummarizationFailed) {
		t.Fatalf("expected ErrSummarizationFailed, got %v", err)
	}
	var apiErr *llm.APIError
	if !errors.As(err, &apiErr) || apiErr.Attempts != 3 || apiErr.Status != 503 {
		t.Fatalf("expected exhausted APIError, got %#v", apiErr)
	}
	if s, e := f.completer.calls(); s != 3 || e != 1 {
		t.Fatalf("expected 3 summary attempts and 1 extraction, got summary=%d extraction=%d", s, e)
	}
	if f.repo.Len() != 0 {
		t.Fatalf("nothing should be persisted")
	}
	if Classify(err).Status != 502 {
		t.Fatalf("expected 502, got %d", Classify(err).Status)
	}
}

func TestProcessExtractionFailurePolicy(t *testing.T) {
	f := newFixture(t)
	f.completer.extraction = func() (llm.Completion, error) {
		return llm.Completion{Text: "Sorry, I cannot produce JSON for this document."}, nil
	}

	_, err := f.svc.Process(context.Background(), ProcessRequest{FileURL: pdfURL, FileName: "alice.pdf"})
	if !errors.Is(err, ErrInvalidModelJSON) {
		t.Fatalf("expected ErrInvalidModelJSON, got %v", err)
	}
	if f.repo.Len() != 0 {
		t.Fatalf("failed requests must not persist")
	}

	f.svc.AllowPartialExtraction = true
	out, err := f.svc.Process(context.Background(), ProcessRequest{FileURL: pdfURL, FileName: "alice.pdf"})
	if err != nil {
		t.Fatalf("partial Process: %v", err)
	}
	if out.StructuredData != nil || len(out.Warnings) == 0 {
		t.Fatalf("expected null structured data with a warning, got %v %v", out.StructuredData, out.Warnings)
	}
	if f.repo.Len() != 1 {
		t.Fatalf("partial result should persist")
	}
}

func TestProcessSkipsExtractionWhenNotRequested(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Process(context.Background(), ProcessRequest{
		FileURL: pdfURL, FileName: "alice.pdf", UserName: "Alice E.", ExtractJSON: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Extracted || out.StructuredData != nil {
		t.Fatalf("expected no structured data, got %v", out.StructuredData)
	}
	if out.Record.Name != "Alice E." {
		t.Fatalf("caller-supplied name should win, got %q", out.Record.Name)
	}
	if len(out.URLs.ByCategory.GitHub) != 1 {
		t.Fatalf("urls are harvested regardless, got %+v", out.URLs)
	}
	if s, e := f.completer.calls(); s != 1 || e != 0 {
		t.Fatalf("expected summary only, got summary=%d extraction=%d", s, e)
	}
}

func TestProcessValidation(t *testing.T) {
	tests := []struct {
		name string
		req  ProcessRequest
		want error
	}{
		{name: "missing url", req: ProcessRequest{FileName: "a.pdf"}, want: ErrMissingInput},
		{name: "missing name", req: ProcessRequest{FileURL: pdfURL}, want: ErrMissingInput},
		{name: "declared too large", req: ProcessRequest{FileURL: pdfURL, FileName: "a.pdf", FileSize: 17 << 20}, want: object.ErrFileTooLarge},
		{name: "unsupported", req: ProcessRequest{FileURL: pdfURL, FileName: "a.png", MimeType: "image/png"}, want: extract.ErrUnsupportedFileType},
		{name: "fetch failure", req: ProcessRequest{FileURL: "https://files.example.com/missing.pdf", FileName: "a.pdf"}, want: object.ErrFetchFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if _, err := f.svc.Process(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if s, _ := f.completer.calls(); s != 0 {
				t.Fatalf("no completion calls expected, got %d", s)
			}
		})
	}
}

func TestProcessUsesFetchedContentType(t *testing.T) {
	f := newFixture(t)
	const presigned = "https://files.example.com/f/abc123"
	f.fetcher.blobs[presigned] = f.fetcher.blobs[pdfURL]

	out, err := f.svc.Process(context.Background(), ProcessRequest{FileURL: presigned, FileName: "Alice Resume"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Document.Kind != extract.KindPDF {
		t.Fatalf("expected pdf from the fetched content type, got %q", out.Document.Kind)
	}
	if f.fetcher.calls != 1 {
		t.Fatalf("expected one fetch, got %d", f.fetcher.calls)
	}
}

func TestProcessContentTypeBeatsExtension(t *testing.T) {
	f := newFixture(t)
	const mislabeled = "https://files.example.com/resume.txt"
	f.fetcher.blobs[mislabeled] = f.fetcher.blobs[pdfURL]

	out, err := f.svc.Process(context.Background(), ProcessRequest{FileURL: mislabeled, FileName: "resume.txt"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Document.Kind != extract.KindPDF || out.Document.PageCount != 2 {
		t.Fatalf("expected the pdf decoder, got %+v", out.Document)
	}
}

func TestProcessUnresolvedTypeAfterFetch(t *testing.T) {
	f := newFixture(t)
	const opaque = "https://files.example.com/f/opaque"
	f.fetcher.blobs[opaque] = object.Blob{Data: []byte("binary"), ContentType: "application/octet-stream", Size: 6}

	_, err := f.svc.Process(context.Background(), ProcessRequest{FileURL: opaque, FileName: "Alice Resume"})
	if !errors.Is(err, extract.ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
	if s, _ := f.completer.calls(); s != 0 {
		t.Fatalf("no completion calls expected, got %d", s)
	}
}

func TestProcessFetchedSizeCeiling(t *testing.T) {
	f := newFixture(t)
	f.svc.MaxFileSize = 64

	_, err := f.svc.Process(context.Background(), ProcessRequest{FileURL: pdfURL, FileName: "alice.pdf"})
	if !errors.Is(err, object.ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestProcessPersistenceFailure(t *testing.T) {
	f := newFixture(t)
	f.svc.Repo = failingRepo{}

	_, err := f.svc.Process(context.Background(), ProcessRequest{FileURL: pdfURL, FileName: "alice.pdf"})
	if !errors.Is(err, ErrPersistenceFailed) {
		t.Fatalf("expected ErrPersistenceFailed, got %v", err)
	}
	if len(f.events.msgs) != 0 {
		t.Fatalf("no event should be published for an unsaved record")
	}
}

func TestProcessEventFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("channel closed")

	if _, err := f.svc.Process(context.Background(), ProcessRequest{FileURL: pdfURL, FileName: "alice.pdf"}); err != nil {
		t.Fatalf("Process: %v", err)
	}
}

func TestProcessWithoutProvider(t *testing.T) {
	f := newFixture(t)
	f.svc.LLM = nil

	_, err := f.svc.Process(context.Background(), ProcessRequest{FileURL: pdfURL, FileName: "alice.pdf"})
	if !errors.Is(err, llm.ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}
}

func TestProcessDetachesCallerCancellation(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.svc.Process(ctx, ProcessRequest{FileURL: pdfURL, FileName: "alice.pdf"}); err != nil {
		t.Fatalf("a cancelled caller must not abort the pipeline: %v", err)
	}
}

func TestGetRejectsMalformedID(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Get(context.Background(), "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func failingSummary() (llm.Completion, error) {
	return llm.Completion{}, &llm.APIError{Provider: "openrouter", Status: 429, Message: "rate limited upstream"}
}

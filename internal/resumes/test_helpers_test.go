package resumes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"resume-processor/internal/extract"
	"resume-processor/internal/extract/extracttest"
	"resume-processor/internal/llm"
	"resume-processor/internal/queue"
	"resume-processor/internal/shared/storage/object"
)

const (
	pdfURL = "https://files.example.com/alice.pdf"
	docURL = "https://files.example.com/alice.doc"
)

var alicePages = []string{
	"Alice Example, Staff Software Engineer\nEmail: alice@example.com | GitHub: github.com/alice | Portland, OR",
	"Experience: Acme Corp, 2019 to present. Led the payments platform rewrite in Go and Postgres.\nEducation: BSc Computer Science, State University.",
}

type stubFetcher struct {
	mu    sync.Mutex
	blobs map[string]object.Blob
	calls int
}

func newStubFetcher() *stubFetcher {
	pdf := extracttest.PDF("Alice Example Resume", alicePages...)
	return &stubFetcher{blobs: map[string]object.Blob{
		pdfURL: {Data: pdf, ContentType: "application/pdf", Size: int64(len(pdf))},
		docURL: {Data: []byte(strings.Repeat("legacy ", 50)), ContentType: "application/msword", Size: 350},
	}}
}

func (f *stubFetcher) Fetch(ctx context.Context, rawURL string) (object.Blob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	blob, ok := f.blobs[rawURL]
	if !ok {
		return object.Blob{}, fmt.Errorf("%w: %s not found", object.ErrFetchFailed, rawURL)
	}
	return blob, nil
}

// stubCompleter answers summary and extraction prompts separately and counts calls.
type stubCompleter struct {
	mu              sync.Mutex
	summaryCalls    int
	extractionCalls int
	summary         func() (llm.Completion, error)
	extraction      func() (llm.Completion, error)
}

func newStubCompleter() *stubCompleter {
	return &stubCompleter{
		summary: func() (llm.Completion, error) {
			return llm.Completion{Text: "Candidate Overview: Alice, staff engineer.", TokensUsed: 120}, nil
		},
		extraction: func() (llm.Completion, error) {
			return llm.Completion{
				Text:       "```json\n{\"personalInfo\": {\"fullName\": \"Alice Example\", \"contact\": {\"email\": \"alice@example.com\"}}}\n```",
				TokensUsed: 300,
			}, nil
		},
	}
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string, opts llm.Options) (llm.Completion, error) {
	s.mu.Lock()
	isExtraction := strings.Contains(prompt, `"personalInfo"`)
	if isExtraction {
		s.extractionCalls++
	} else {
		s.summaryCalls++
	}
	s.mu.Unlock()
	if isExtraction {
		return s.extraction()
	}
	return s.summary()
}

func (s *stubCompleter) calls() (summary, extraction int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryCalls, s.extractionCalls
}

type recordingEvents struct {
	mu   sync.Mutex
	msgs []queue.Message
	err  error
}

func (r *recordingEvents) Send(ctx context.Context, msg queue.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

type failingRepo struct {
	*MemoryRepo
}

func (failingRepo) Insert(ctx context.Context, rec NewRecord) (Record, error) {
	return Record{}, errors.New("connection reset by peer")
}

type fixture struct {
	svc       *Service
	repo      *MemoryRepo
	fetcher   *stubFetcher
	completer *stubCompleter
	events    *recordingEvents
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:      NewMemoryRepo(),
		fetcher:   newStubFetcher(),
		completer: newStubCompleter(),
		events:    &recordingEvents{},
	}
	f.svc = &Service{
		Repo:      f.repo,
		Fetcher:   f.fetcher,
		Extractor: extract.New(extract.DefaultLimits()),
		// A nanosecond base delay keeps the retry schedule without the wait.
		LLM:      &llm.Retrying{Base: f.completer, Provider: "openrouter", Attempts: 3, BaseDelay: time.Nanosecond},
		Provider: "openrouter",
		Model:    "meta-llama/llama-3.3-8b-instruct:free",
		Events:   f.events,
	}
	return f
}

func boolPtr(b bool) *bool { return &b }

package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"resume-processor/internal/shared/storage/object"
)

func TestFetchReturnsBodyAndType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("resume body"))
	}))
	defer srv.Close()

	blob, err := New(srv.Client(), 0).Fetch(context.Background(), srv.URL+"/cv.txt")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(blob.Data) != "resume body" || blob.ContentType != "text/plain" || blob.Size != 11 {
		t.Fatalf("unexpected blob: %+v", blob)
	}
}

func TestFetchNon2xxIsFetchFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.Client(), 0).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, object.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

func TestFetchSizeLimits(t *testing.T) {
	declared := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer declared.Close()

	if _, err := New(declared.Client(), 32).Fetch(context.Background(), declared.URL); !errors.Is(err, object.ErrFileTooLarge) {
		t.Fatalf("declared length: expected ErrFileTooLarge, got %v", err)
	}

	// Chunked responses carry no Content-Length, so the limit applies while reading.
	chunked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 4; i++ {
			_, _ = w.Write(make([]byte, 16))
			w.(http.Flusher).Flush()
		}
	}))
	defer chunked.Close()

	if _, err := New(chunked.Client(), 32).Fetch(context.Background(), chunked.URL); !errors.Is(err, object.ErrFileTooLarge) {
		t.Fatalf("streamed length: expected ErrFileTooLarge, got %v", err)
	}
}

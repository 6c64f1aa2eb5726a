package s3

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"resume-processor/internal/shared/storage/object"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "uploads/cv.pdf", want: "uploads/cv.pdf"},
		{name: "simple prefix", prefix: "root", key: "uploads/cv.pdf", want: "root/uploads/cv.pdf"},
		{name: "prefix trailing slash", prefix: "root/", key: "uploads/cv.pdf", want: "root/uploads/cv.pdf"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/uploads/cv.pdf", want: "root/uploads/cv.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestParseURL(t *testing.T) {
	bucket, key, err := parseURL("s3://resumes/2024/jane.pdf")
	if err != nil {
		t.Fatalf("parseURL: %v", err)
	}
	if bucket != "resumes" || key != "2024/jane.pdf" {
		t.Fatalf("unexpected bucket=%q key=%q", bucket, key)
	}

	for _, raw := range []string{"https://resumes/jane.pdf", "s3://resumes", "s3:///jane.pdf"} {
		if _, _, err := parseURL(raw); !errors.Is(err, object.ErrFetchFailed) {
			t.Fatalf("%s: expected ErrFetchFailed, got %v", raw, err)
		}
	}
}

func newTestStore(t *testing.T, handler http.HandlerFunc, maxBytes int64) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := New(context.Background(), Options{
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
		MaxBytes:  maxBytes,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func TestFetchUsesPathStyleEndpoint(t *testing.T) {
	body := []byte("%PDF-1.4 test")
	var gotPath string
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		_, _ = w.Write(body)
	}, 0)

	blob, err := store.Fetch(context.Background(), "s3://resumes/jane.pdf")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotPath != "/resumes/jane.pdf" {
		t.Fatalf("expected path-style request, got %q", gotPath)
	}
	if blob.ContentType != "application/pdf" || string(blob.Data) != string(body) {
		t.Fatalf("unexpected blob: %+v", blob)
	}
}

func TestFetchRejectsDeclaredOversize(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "64")
		_, _ = w.Write(make([]byte, 64))
	}, 16)

	_, err := store.Fetch(context.Background(), "s3://resumes/big.pdf")
	if !errors.Is(err, object.ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"resume-processor/internal/shared/storage/object"
)

func TestFetchReadsRelativeKey(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "uploads"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "uploads", "cv.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	blob, err := New(dir, 0).Fetch(context.Background(), "file://uploads/cv.txt")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(blob.Data) != "hello" || blob.Size != 5 {
		t.Fatalf("unexpected blob: %+v", blob)
	}
}

func TestFetchRejectsTraversal(t *testing.T) {
	store := New(t.TempDir(), 0)
	for _, key := range []string{"file://../etc/passwd", "file:///etc/passwd", "file://"} {
		if _, err := store.Fetch(context.Background(), key); !errors.Is(err, object.ErrFetchFailed) {
			t.Fatalf("%s: expected ErrFetchFailed, got %v", key, err)
		}
	}
}

func TestFetchEnforcesSize(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "big.pdf"), make([]byte, 64), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := New(dir, 32).Fetch(context.Background(), "file://big.pdf")
	if !errors.Is(err, object.ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

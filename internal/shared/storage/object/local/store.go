package local

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"resume-processor/internal/shared/storage/object"
)

// Store serves file:// references from a directory on disk. Intended for local development.
type Store struct {
	baseDir  string
	maxBytes int64
}

// New creates a local fetcher rooted at baseDir.
func New(baseDir string, maxBytes int64) *Store {
	if maxBytes <= 0 {
		maxBytes = object.DefaultMaxBytes
	}
	return &Store{baseDir: baseDir, maxBytes: maxBytes}
}

// Fetch reads file://<key> relative to the base directory.
func (s *Store) Fetch(ctx context.Context, rawURL string) (object.Blob, error) {
	if err := ctx.Err(); err != nil {
		return object.Blob{}, err
	}

	key := strings.TrimPrefix(strings.TrimSpace(rawURL), "file://")
	clean := filepath.Clean(key)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return object.Blob{}, fmt.Errorf("%w: invalid storage key %q", object.ErrFetchFailed, key)
	}

	fullPath := filepath.Join(s.baseDir, clean)
	info, err := os.Stat(fullPath)
	if err != nil {
		return object.Blob{}, fmt.Errorf("%w: %v", object.ErrFetchFailed, err)
	}
	if info.Size() > s.maxBytes {
		return object.Blob{}, object.TooLarge(info.Size(), s.maxBytes)
	}

	f, err := os.Open(fullPath)
	if err != nil {
		return object.Blob{}, fmt.Errorf("%w: %v", object.ErrFetchFailed, err)
	}
	defer f.Close()

	data, err := object.ReadLimited(f, s.maxBytes)
	if err != nil {
		return object.Blob{}, err
	}
	return object.Blob{
		Data:        data,
		ContentType: http.DetectContentType(data),
		Size:        int64(len(data)),
	}, nil
}

var _ object.Fetcher = (*Store)(nil)

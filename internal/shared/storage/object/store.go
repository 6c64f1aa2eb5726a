package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
)

// DefaultMaxBytes is the upload ceiling applied when none is configured.
const DefaultMaxBytes int64 = 16 << 20

var (
	ErrFileTooLarge = errors.New("file too large")
	ErrFetchFailed  = errors.New("fetch failed")
)

// Blob is a fetched document held in memory for the duration of one request.
type Blob struct {
	Data        []byte
	ContentType string
	Size        int64
}

// Fetcher retrieves the bytes behind a document reference.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Blob, error)
}

// TooLarge builds an ErrFileTooLarge carrying the observed and allowed sizes.
func TooLarge(size, max int64) error {
	return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrFileTooLarge, size, max)
}

// ReadLimited reads r fully, failing once more than max bytes have been seen.
func ReadLimited(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetchFailed, err)
	}
	if int64(len(data)) > max {
		return nil, TooLarge(int64(len(data)), max)
	}
	return data, nil
}

// Router dispatches fetches to a Fetcher registered for the URL scheme.
type Router struct {
	fetchers map[string]Fetcher
}

// NewRouter constructs an empty Router.
func NewRouter() *Router {
	return &Router{fetchers: make(map[string]Fetcher)}
}

// Register binds a fetcher to one or more schemes.
func (r *Router) Register(f Fetcher, schemes ...string) {
	for _, s := range schemes {
		r.fetchers[strings.ToLower(s)] = f
	}
}

// Schemes reports the registered schemes, sorted.
func (r *Router) Schemes() []string {
	out := make([]string, 0, len(r.fetchers))
	for s := range r.fetchers {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Fetch resolves the scheme of rawURL and delegates.
func (r *Router) Fetch(ctx context.Context, rawURL string) (Blob, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Blob{}, fmt.Errorf("%w: invalid url: %v", ErrFetchFailed, err)
	}
	f, ok := r.fetchers[strings.ToLower(u.Scheme)]
	if !ok {
		return Blob{}, fmt.Errorf("%w: unsupported scheme %q", ErrFetchFailed, u.Scheme)
	}
	return f.Fetch(ctx, rawURL)
}

var _ Fetcher = (*Router)(nil)

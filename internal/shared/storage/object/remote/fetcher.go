package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"resume-processor/internal/shared/storage/object"
)

const defaultTimeout = 30 * time.Second

// Fetcher downloads http(s) document references such as pre-signed upload URLs.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// New constructs a Fetcher. A nil client gets a default with a 30s timeout.
func New(client *http.Client, maxBytes int64) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if maxBytes <= 0 {
		maxBytes = object.DefaultMaxBytes
	}
	return &Fetcher{client: client, maxBytes: maxBytes}
}

// Fetch performs a GET, rejecting oversized bodies by Content-Length before reading.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (object.Blob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return object.Blob{}, fmt.Errorf("%w: build request: %v", object.ErrFetchFailed, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return object.Blob{}, fmt.Errorf("%w: %v", object.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return object.Blob{}, fmt.Errorf("%w: upstream status %d", object.ErrFetchFailed, resp.StatusCode)
	}
	if resp.ContentLength > f.maxBytes {
		return object.Blob{}, object.TooLarge(resp.ContentLength, f.maxBytes)
	}

	data, err := object.ReadLimited(resp.Body, f.maxBytes)
	if err != nil {
		return object.Blob{}, err
	}
	return object.Blob{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        int64(len(data)),
	}, nil
}

var _ object.Fetcher = (*Fetcher)(nil)

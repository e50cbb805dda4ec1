// Package fetch retrieves the source page over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// DefaultUserAgent identifies the job to the archive server.
const DefaultUserAgent = "banketl/1.0"

// Error reports a transport failure or a non-2xx response.
type Error struct {
	URL        string
	StatusCode int // 0 for transport failures
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fetcher issues a single GET per call. It does not retry or cache.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New returns a Fetcher using client, or http.DefaultClient when nil.
func New(client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Fetcher{client: client, userAgent: userAgent}
}

// Fetch returns the body of url as text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &Error{URL: url, Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{URL: url, Err: fmt.Errorf("reading body: %w", err)}
	}
	return string(body), nil
}

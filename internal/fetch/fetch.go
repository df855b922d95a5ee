// ABOUTME: HTTP fetcher for feed documents with ETag/Last-Modified conditional requests
// ABOUTME: Reports 304 Not Modified so unchanged feeds cost nothing to re-poll

package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MaxResponseSize caps feed documents at 10MB.
const MaxResponseSize = 10 * 1024 * 1024

const userAgent = "rsstail/1.0 (+https://github.com/harper/rsstail)"

// Result contains the response from one feed fetch.
type Result struct {
	Body         []byte
	ETag         string
	LastModified string
	NotModified  bool
}

// Client fetches feed documents over HTTP.
type Client struct {
	httpClient *http.Client
}

// NewClient returns a Client with a sane request timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch retrieves a feed URL, sending If-None-Match / If-Modified-Since when
// validators from a previous poll are supplied. A 304 response yields
// NotModified=true with an empty body. Any other non-200 status is an error.
func (c *Client) Fetch(ctx context.Context, url, etag, lastModified string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL %q: %w", url, err)
	}

	req.Header.Set("User-Agent", userAgent)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return &Result{
			ETag:         etag,
			LastModified: lastModified,
			NotModified:  true,
		}, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %q", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %q: %w", url, err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response from %q exceeds %d bytes", url, MaxResponseSize)
	}

	return &Result{
		Body:         body,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, nil
}

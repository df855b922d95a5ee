// ABOUTME: Feed source abstraction supplying one snapshot per poll
// ABOUTME: The HTTP implementation combines conditional fetching with gofeed parsing

package tail

import (
	"context"

	"github.com/harper/rsstail/internal/fetch"
	"github.com/harper/rsstail/internal/models"
	"github.com/harper/rsstail/internal/parse"
)

// Update is the outcome of fetching one feed once: its entries in source
// order plus the HTTP validators for the next conditional request.
// NotModified means the document has not changed since the last poll and
// Entries is empty.
type Update struct {
	Entries      []*models.Entry
	ETag         string
	LastModified string
	NotModified  bool
}

// Source supplies a fresh Update for a feed URL each poll cycle.
type Source interface {
	Fetch(ctx context.Context, url, etag, lastModified string) (*Update, error)
}

// HTTPSource fetches and parses feeds over HTTP.
type HTTPSource struct {
	client *fetch.Client
}

// NewHTTPSource returns a Source backed by a shared HTTP client.
func NewHTTPSource() *HTTPSource {
	return &HTTPSource{client: fetch.NewClient()}
}

func (s *HTTPSource) Fetch(ctx context.Context, url, etag, lastModified string) (*Update, error) {
	res, err := s.client.Fetch(ctx, url, etag, lastModified)
	if err != nil {
		return nil, err
	}

	if res.NotModified {
		return &Update{
			ETag:         res.ETag,
			LastModified: res.LastModified,
			NotModified:  true,
		}, nil
	}

	snap, err := parse.Parse(res.Body)
	if err != nil {
		return nil, err
	}

	return &Update{
		Entries:      snap.Entries,
		ETag:         res.ETag,
		LastModified: res.LastModified,
	}, nil
}

// ABOUTME: RSS/Atom feed parsing using the gofeed library
// ABOUTME: Converts gofeed items into normalized Entry values for the tail pipeline

package parse

import (
	"bytes"
	"fmt"

	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"

	"github.com/harper/rsstail/internal/content"
	"github.com/harper/rsstail/internal/models"
)

// InputError reports a feed document that could not be parsed.
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("malformed feed document: %v", e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// Snapshot is the result of parsing one fetch of one feed: the feed title
// and its entries in the source's native order.
type Snapshot struct {
	Title   string
	Entries []*models.Entry
}

// Parse parses raw RSS or Atom bytes into a Snapshot.
// Returns InputError when the document is not a valid feed.
func Parse(data []byte) (*Snapshot, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &InputError{Err: err}
	}

	return &Snapshot{
		Title:   feed.Title,
		Entries: lo.Map(feed.Items, func(item *gofeed.Item, _ int) *models.Entry {
			return fromItem(item)
		}),
	}, nil
}

// fromItem normalizes one gofeed item. Descriptions frequently carry HTML
// markup, so they are cleaned for terminal display here, once, at
// construction time.
func fromItem(item *gofeed.Item) *models.Entry {
	entry := &models.Entry{
		ID:        item.GUID,
		Title:     item.Title,
		Link:      item.Link,
		Published: item.PublishedParsed,
		Updated:   item.UpdatedParsed,
		Comments:  item.Custom["comments"],
	}

	description := item.Description
	if description == "" {
		description = item.Content
	}
	entry.Description = content.Clean(description)

	if item.Author != nil {
		entry.Author = item.Author.Name
	} else if len(item.Authors) > 0 && item.Authors[0] != nil {
		entry.Author = item.Authors[0].Name
	}

	return entry
}

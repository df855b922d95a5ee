// ABOUTME: Deduplicator dropping entries whose identity was already observed
// ABOUTME: Maintains an insertion-ordered seen set with bounded retention

package filter

import "github.com/harper/rsstail/internal/models"

// DefaultRetention bounds the seen set at this multiple of the largest
// snapshot observed so far. Eight snapshots of slack comfortably covers
// feeds that rotate old entries back in without letting a long-running
// process grow without limit.
const DefaultRetention = 8

// Deduper tracks entry identities across polls of one feed and drops
// entries already observed. The zero value is not usable; construct with
// NewDeduper, seeding it from persisted state where available.
type Deduper struct {
	// Retention is the seen-set bound as a multiple of the largest
	// snapshot size observed. Oldest-inserted identities are evicted first.
	Retention int

	order       []string
	index       map[string]struct{}
	maxSnapshot int
}

// NewDeduper returns a Deduper seeded with previously observed identities,
// oldest first.
func NewDeduper(seen []string) *Deduper {
	d := &Deduper{
		Retention: DefaultRetention,
		index:     make(map[string]struct{}, len(seen)),
	}
	for _, id := range seen {
		if _, dup := d.index[id]; dup {
			continue
		}
		d.index[id] = struct{}{}
		d.order = append(d.order, id)
	}
	return d
}

// Apply returns the entries whose identity has not been observed before.
// Every entry in the input is marked observed, kept or not, so an entry
// filtered out this cycle is still recognized next cycle.
func (d *Deduper) Apply(entries []*models.Entry) []*models.Entry {
	kept := make([]*models.Entry, 0, len(entries))

	for _, entry := range entries {
		id := entry.Identity()
		if _, dup := d.index[id]; dup {
			continue
		}
		d.index[id] = struct{}{}
		d.order = append(d.order, id)
		kept = append(kept, entry)
	}

	if len(entries) > d.maxSnapshot {
		d.maxSnapshot = len(entries)
	}
	d.evict()

	return kept
}

// Seen returns the observed identities, oldest first, for persistence.
func (d *Deduper) Seen() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

func (d *Deduper) evict() {
	limit := d.Retention * d.maxSnapshot
	if limit <= 0 || len(d.order) <= limit {
		return
	}

	evicted := d.order[:len(d.order)-limit]
	for _, id := range evicted {
		delete(d.index, id)
	}
	d.order = append(d.order[:0:0], d.order[len(d.order)-limit:]...)
}

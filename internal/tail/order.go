// ABOUTME: Chronological ordering of filtered entries before rendering
// ABOUTME: Oldest first by default, newest first with reverse; undated entries sort last

package tail

import (
	"sort"

	"github.com/harper/rsstail/internal/models"
)

// Order sorts entries by timestamp, oldest first, in place. reverse yields
// newest first. Entries without a timestamp sort after all dated entries,
// keeping their relative input order.
func Order(entries []*models.Entry, reverse bool) {
	sort.SliceStable(entries, func(i, j int) bool {
		ti, tj := entries[i].Timestamp(), entries[j].Timestamp()
		switch {
		case ti == nil || tj == nil:
			// Undated never sorts before dated; two undated keep input order
			return tj == nil && ti != nil
		case reverse:
			return ti.After(*tj)
		default:
			return ti.Before(*tj)
		}
	})
}

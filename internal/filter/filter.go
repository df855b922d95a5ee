// ABOUTME: Novelty filter selecting entries not yet shown for a feed
// ABOUTME: Applies high-water mark, absolute threshold date, and first-run entry cap

package filter

import (
	"sort"
	"time"

	"github.com/harper/rsstail/internal/models"
)

// Result is the outcome of one novelty pass over a snapshot.
type Result struct {
	// Entries qualify as new, in snapshot order.
	Entries []*models.Entry
	// Undated counts entries skipped because they carry no timestamp and
	// therefore cannot be compared against the high-water mark. Callers
	// should warn about these rather than fail.
	Undated int
}

// Novel selects the entries of a snapshot that have not been shown yet.
//
// last is the high-water mark recorded after the previous poll (nil on the
// first run); only entries with a strictly newer timestamp qualify against
// it. newerThan is an absolute threshold applied on every run; entries must
// be at or after it. initial, when positive, caps the first run to the N
// most recent qualifying entries.
//
// Entries without a timestamp qualify on the first run and are skipped (and
// counted) on subsequent runs. Output preserves snapshot order.
func Novel(snapshot []*models.Entry, last *time.Time, newerThan *time.Time, initial int) Result {
	var res Result

	for _, entry := range snapshot {
		ts := entry.Timestamp()

		if ts == nil {
			if last != nil {
				res.Undated++
				continue
			}
			if newerThan != nil {
				continue
			}
			res.Entries = append(res.Entries, entry)
			continue
		}

		if last != nil && !ts.After(*last) {
			continue
		}
		if newerThan != nil && ts.Before(*newerThan) {
			continue
		}

		res.Entries = append(res.Entries, entry)
	}

	if last == nil && initial > 0 && len(res.Entries) > initial {
		res.Entries = capMostRecent(res.Entries, initial)
	}

	return res
}

// capMostRecent keeps the n most recent entries by timestamp, returning
// them in their original relative order. Undated entries count as oldest.
func capMostRecent(entries []*models.Entry, n int) []*models.Entry {
	type ranked struct {
		entry *models.Entry
		pos   int
	}

	byTime := make([]ranked, len(entries))
	for i, e := range entries {
		byTime[i] = ranked{entry: e, pos: i}
	}

	sort.SliceStable(byTime, func(i, j int) bool {
		ti, tj := byTime[i].entry.Timestamp(), byTime[j].entry.Timestamp()
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})

	keep := byTime[:n]
	sort.Slice(keep, func(i, j int) bool { return keep[i].pos < keep[j].pos })

	kept := make([]*models.Entry, n)
	for i, r := range keep {
		kept[i] = r.entry
	}
	return kept
}

// ABOUTME: Tests for the bounded deduplicator
// ABOUTME: Covers seen-set seeding, drop behavior, observation marking, and eviction

package filter

import (
	"fmt"
	"testing"

	"github.com/harper/rsstail/internal/models"
)

func entryWithID(id string) *models.Entry {
	return &models.Entry{ID: id, Title: "entry " + id}
}

func TestDeduper_DropsSeen(t *testing.T) {
	d := NewDeduper([]string{"a"})

	kept := d.Apply([]*models.Entry{entryWithID("a"), entryWithID("b")})
	if len(kept) != 1 || kept[0].ID != "b" {
		t.Fatalf("expected only 'b' kept, got %v", titles(kept))
	}

	// Re-applying the same entries drops everything
	kept = d.Apply([]*models.Entry{entryWithID("a"), entryWithID("b")})
	if len(kept) != 0 {
		t.Fatalf("expected nothing kept on second pass, got %v", titles(kept))
	}
}

func TestDeduper_MarksAllObserved(t *testing.T) {
	d := NewDeduper(nil)
	d.Apply([]*models.Entry{entryWithID("a"), entryWithID("b")})

	seen := d.Seen()
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Fatalf("expected seen [a b], got %v", seen)
	}
}

func TestDeduper_DerivedIdentity(t *testing.T) {
	d := NewDeduper(nil)

	first := &models.Entry{Link: "https://example.com/1", Title: "One"}
	refetched := &models.Entry{Link: "https://example.com/1", Title: "One"}

	if kept := d.Apply([]*models.Entry{first}); len(kept) != 1 {
		t.Fatal("expected first appearance kept")
	}
	if kept := d.Apply([]*models.Entry{refetched}); len(kept) != 0 {
		t.Fatal("expected refetched entry with same link+title dropped")
	}
}

func TestDeduper_SeedIgnoresDuplicates(t *testing.T) {
	d := NewDeduper([]string{"a", "b", "a"})
	if seen := d.Seen(); len(seen) != 2 {
		t.Fatalf("expected duplicate seed ids collapsed, got %v", seen)
	}
}

func TestDeduper_EvictsOldestFirst(t *testing.T) {
	d := NewDeduper(nil)
	d.Retention = 2

	// Snapshots of 3 entries; the set is capped at 2*3=6 identities
	for batch := 0; batch < 4; batch++ {
		var entries []*models.Entry
		for i := 0; i < 3; i++ {
			entries = append(entries, entryWithID(fmt.Sprintf("e%d-%d", batch, i)))
		}
		d.Apply(entries)
	}

	seen := d.Seen()
	if len(seen) != 6 {
		t.Fatalf("expected seen set capped at 6, got %d: %v", len(seen), seen)
	}
	if seen[0] != "e2-0" || seen[5] != "e3-2" {
		t.Errorf("expected oldest identities evicted first, got %v", seen)
	}

	// An evicted identity is treated as novel again
	if kept := d.Apply([]*models.Entry{entryWithID("e0-0")}); len(kept) != 1 {
		t.Error("expected evicted identity to qualify again")
	}
}

// ABOUTME: Entry model representing a single feed item with named field access
// ABOUTME: Provides field aliasing, derived timestamp, and stable identity for dedupe

package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// identityNamespace salts derived identities so they cannot collide with
// UUIDs minted elsewhere. The value is arbitrary but must never change:
// derived identities have to stay stable across runs.
var identityNamespace = uuid.MustParse("5d1f0f6e-9e0a-4a54-b1c6-07f4a9c3b5d2")

// Entry represents a single entry (article/item) in an RSS/Atom feed.
// All fields are optional; feed sources vary widely in completeness.
// An Entry is never mutated after construction.
type Entry struct {
	ID          string
	Title       string
	Link        string
	Author      string
	Description string
	Comments    string
	Published   *time.Time
	Updated     *time.Time
	Expired     *time.Time
}

// Timestamp returns the entry's effective timestamp: Updated when present,
// else Published, else nil.
func (e *Entry) Timestamp() *time.Time {
	if e.Updated != nil {
		return e.Updated
	}
	return e.Published
}

// Identity returns a stable key identifying the "same" entry across polls.
// The feed-supplied ID wins; otherwise a deterministic UUID is derived from
// the link and title.
func (e *Entry) Identity() string {
	if e.ID != "" {
		return e.ID
	}
	return uuid.NewSHA1(identityNamespace, []byte(e.Link+"\x00"+e.Title)).String()
}

// Value is the result of looking up a field on an Entry. Timestamp-valued
// fields carry Time; everything else carries Text.
type Value struct {
	Text string
	Time *time.Time
}

// Accessor extracts one named field from an Entry.
type Accessor func(*Entry) Value

func textField(get func(*Entry) string) Accessor {
	return func(e *Entry) Value { return Value{Text: get(e)} }
}

func timeField(get func(*Entry) *time.Time) Accessor {
	return func(e *Entry) Value { return Value{Time: get(e)} }
}

// fields maps every recognized field name, including aliases, to its
// accessor. desc/description and url/link are aliases; created and pubdate
// both name the published date; timestamp is derived (updated, falling back
// to published).
var fields = map[string]Accessor{
	"id":          textField(func(e *Entry) string { return e.ID }),
	"title":       textField(func(e *Entry) string { return e.Title }),
	"link":        textField(func(e *Entry) string { return e.Link }),
	"url":         textField(func(e *Entry) string { return e.Link }),
	"author":      textField(func(e *Entry) string { return e.Author }),
	"description": textField(func(e *Entry) string { return e.Description }),
	"desc":        textField(func(e *Entry) string { return e.Description }),
	"comments":    textField(func(e *Entry) string { return e.Comments }),
	"pubdate":     timeField(func(e *Entry) *time.Time { return e.Published }),
	"created":     timeField(func(e *Entry) *time.Time { return e.Published }),
	"updated":     timeField(func(e *Entry) *time.Time { return e.Updated }),
	"expired":     timeField(func(e *Entry) *time.Time { return e.Expired }),
	"timestamp":   timeField(func(e *Entry) *time.Time { return e.Timestamp() }),
}

// UnknownFieldError reports a field name outside the documented field set.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q (available: %s)", e.Name, strings.Join(FieldNames(), ", "))
}

// Field resolves a field name (or alias) to its accessor.
// Returns UnknownFieldError for names outside the documented set.
func Field(name string) (Accessor, error) {
	acc, ok := fields[name]
	if !ok {
		return nil, &UnknownFieldError{Name: name}
	}
	return acc, nil
}

// FieldNames returns every recognized field name, sorted.
func FieldNames() []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

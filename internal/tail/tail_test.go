// ABOUTME: Tests for the tail pipeline and polling loop
// ABOUTME: Drives cycles with a scripted source and asserts on rendered output

package tail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/rsstail/internal/format"
	"github.com/harper/rsstail/internal/models"
	"github.com/harper/rsstail/internal/state"
)

// fakeSource replays scripted snapshots per URL: call n gets snapshot n,
// and calls past the end repeat the last one.
type fakeSource struct {
	snapshots map[string][][]*models.Entry
	errs      map[string]error
	calls     map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		snapshots: make(map[string][][]*models.Entry),
		errs:      make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (s *fakeSource) Fetch(_ context.Context, url, _, _ string) (*Update, error) {
	if err := s.errs[url]; err != nil {
		return nil, err
	}

	script := s.snapshots[url]
	if len(script) == 0 {
		return &Update{}, nil
	}
	i := s.calls[url]
	s.calls[url]++
	if i >= len(script) {
		i = len(script) - 1
	}
	return &Update{Entries: script[i]}, nil
}

func dated(title string, day int) *models.Entry {
	ts := time.Date(2024, 3, day, 12, 0, 0, 0, time.UTC)
	return &models.Entry{
		ID:        "id-" + title,
		Title:     title,
		Link:      "https://example.com/" + title,
		Published: &ts,
	}
}

func titleFormatter(t *testing.T) *format.Formatter {
	t.Helper()
	f, err := format.Compile("%(title)s\n", format.DefaultTimeFormat, format.SyntaxAuto)
	require.NoError(t, err)
	return f
}

func newTailer(t *testing.T, urls []string, src Source, store state.Store, f *format.Formatter, out io.Writer, opts Options) *Tailer {
	t.Helper()
	if f == nil {
		f = titleFormatter(t)
	}
	if store == nil {
		store = state.NewMemoryStore()
	}
	return New(urls, src, store, f, out, log.New(io.Discard), opts)
}

const feedURL = "https://example.com/feed"

func TestPoll_NoveltyAcrossCycles(t *testing.T) {
	src := newFakeSource()
	src.snapshots[feedURL] = [][]*models.Entry{
		{dated("a", 1), dated("b", 2)},
		{dated("a", 1), dated("b", 2), dated("c", 3)},
		{dated("a", 1), dated("b", 2), dated("c", 3)},
	}

	var out bytes.Buffer
	tailer := newTailer(t, []string{feedURL}, src, nil, nil, &out, Options{})

	require.NoError(t, tailer.Poll(context.Background()))
	assert.Equal(t, "a\nb\n", out.String())

	out.Reset()
	require.NoError(t, tailer.Poll(context.Background()))
	assert.Equal(t, "c\n", out.String())

	// A snapshot with nothing newer emits nothing
	out.Reset()
	require.NoError(t, tailer.Poll(context.Background()))
	assert.Equal(t, "", out.String())
}

func TestPoll_InitialCapFirstCycleOnly(t *testing.T) {
	var entries []*models.Entry
	for day := 1; day <= 25; day++ {
		entries = append(entries, dated(fmt.Sprintf("e%02d", day), day))
	}
	later := append(append([]*models.Entry{}, entries...), dated("e26", 26))

	src := newFakeSource()
	src.snapshots[feedURL] = [][]*models.Entry{entries, later}

	var out bytes.Buffer
	tailer := newTailer(t, []string{feedURL}, src, nil, nil, &out, Options{Initial: 5})

	require.NoError(t, tailer.Poll(context.Background()))
	assert.Equal(t, "e21\ne22\ne23\ne24\ne25\n", out.String())

	// Second cycle is bounded by the high-water mark, not the cap
	out.Reset()
	require.NoError(t, tailer.Poll(context.Background()))
	assert.Equal(t, "e26\n", out.String())
}

func TestPoll_NewerThanEveryCycle(t *testing.T) {
	cutoff := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	src := newFakeSource()
	src.snapshots[feedURL] = [][]*models.Entry{
		{dated("old", 1), dated("new", 3)},
	}

	var out bytes.Buffer
	tailer := newTailer(t, []string{feedURL}, src, nil, nil, &out, Options{NewerThan: &cutoff})

	require.NoError(t, tailer.Poll(context.Background()))
	assert.Equal(t, "new\n", out.String())
}

func TestPoll_ReverseOrder(t *testing.T) {
	src := newFakeSource()
	src.snapshots[feedURL] = [][]*models.Entry{
		{dated("b", 2), dated("a", 1), dated("c", 3)},
	}

	var out bytes.Buffer
	tailer := newTailer(t, []string{feedURL}, src, nil, nil, &out, Options{})
	require.NoError(t, tailer.Poll(context.Background()))
	assert.Equal(t, "a\nb\nc\n", out.String(), "default is oldest first")

	out.Reset()
	tailer = newTailer(t, []string{feedURL}, src, nil, nil, &out, Options{Reverse: true})
	src.calls = map[string]int{}
	require.NoError(t, tailer.Poll(context.Background()))
	assert.Equal(t, "c\nb\na\n", out.String(), "reverse is newest first")
}

func TestPoll_UniqueDropsReEmittedIdentity(t *testing.T) {
	bumped := dated("a", 5)
	bumped.ID = "id-a"

	src := newFakeSource()
	src.snapshots[feedURL] = [][]*models.Entry{
		{dated("a", 1)},
		// Same identity comes back with a newer timestamp
		{bumped},
	}

	var out bytes.Buffer
	tailer := newTailer(t, []string{feedURL}, src, nil, nil, &out, Options{Unique: true})

	require.NoError(t, tailer.Poll(context.Background()))
	assert.Equal(t, "a\n", out.String())

	out.Reset()
	require.NoError(t, tailer.Poll(context.Background()))
	assert.Equal(t, "", out.String(), "already-shown identity must never re-appear")
}

func TestPoll_WithoutUniqueReEmitsBumpedEntry(t *testing.T) {
	bumped := dated("a", 5)

	src := newFakeSource()
	src.snapshots[feedURL] = [][]*models.Entry{
		{dated("a", 1)},
		{bumped},
	}

	var out bytes.Buffer
	tailer := newTailer(t, []string{feedURL}, src, nil, nil, &out, Options{})

	require.NoError(t, tailer.Poll(context.Background()))
	out.Reset()
	require.NoError(t, tailer.Poll(context.Background()))
	assert.Equal(t, "a\n", out.String(), "bumped timestamp re-qualifies without dedupe")
}

func TestPoll_CacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	logger := log.New(io.Discard)

	src := newFakeSource()
	src.snapshots[feedURL] = [][]*models.Entry{
		{dated("a", 1), dated("b", 2)},
	}

	var out bytes.Buffer
	tailer := newTailer(t, []string{feedURL}, src, state.NewFileStore(path, logger), nil, &out, Options{Unique: true})
	require.NoError(t, tailer.Poll(context.Background()))
	assert.Equal(t, "a\nb\n", out.String())

	// Fresh process: new store, new tailer, one new entry in the feed
	src2 := newFakeSource()
	src2.snapshots[feedURL] = [][]*models.Entry{
		{dated("a", 1), dated("b", 2), dated("c", 3)},
	}

	out.Reset()
	tailer = newTailer(t, []string{feedURL}, src2, state.NewFileStore(path, logger), nil, &out, Options{Unique: true})
	require.NoError(t, tailer.Poll(context.Background()))
	assert.Equal(t, "c\n", out.String(), "restored state must behave like an in-process continuation")
}

func TestPoll_FetchErrorSkipsFeed(t *testing.T) {
	okURL := "https://ok.example.com/feed"

	src := newFakeSource()
	src.errs[feedURL] = errors.New("connection refused")
	src.snapshots[okURL] = [][]*models.Entry{{dated("a", 1)}}

	var out bytes.Buffer
	store := state.NewMemoryStore()
	tailer := newTailer(t, []string{feedURL, okURL}, src, store, nil, &out, Options{})

	require.NoError(t, tailer.Poll(context.Background()))
	assert.Equal(t, "a\n", out.String(), "healthy feed still polled")
	assert.Nil(t, store.Load(feedURL).LastTimestamp, "failed feed state untouched")
}

func TestPoll_FetchErrorFatalUnderFailFast(t *testing.T) {
	src := newFakeSource()
	src.errs[feedURL] = errors.New("connection refused")

	var out bytes.Buffer
	tailer := newTailer(t, []string{feedURL}, src, nil, nil, &out, Options{FailFast: true})

	err := tailer.Poll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), feedURL)
	assert.Equal(t, "", out.String())
}

func TestPoll_HeadingEmittedOnce(t *testing.T) {
	f, err := format.FromFields([]string{"title"}, format.DefaultTimeFormat, true)
	require.NoError(t, err)

	src := newFakeSource()
	src.snapshots[feedURL] = [][]*models.Entry{
		{dated("a", 1)},
		{dated("a", 1), dated("b", 2)},
	}

	var out bytes.Buffer
	tailer := newTailer(t, []string{feedURL}, src, nil, f, &out, Options{})

	require.NoError(t, tailer.Poll(context.Background()))
	require.NoError(t, tailer.Poll(context.Background()))
	assert.Equal(t, "Title\na\nb\n", out.String())
}

func TestRun_IterationLimit(t *testing.T) {
	src := newFakeSource()
	src.snapshots[feedURL] = [][]*models.Entry{{dated("a", 1)}}

	var out bytes.Buffer
	tailer := newTailer(t, []string{feedURL}, src, nil, nil, &out, Options{
		Iterations: 3,
		Interval:   time.Millisecond,
	})

	require.NoError(t, tailer.Run(context.Background()))
	assert.Equal(t, 3, src.calls[feedURL])
	assert.Equal(t, "a\n", out.String(), "entries emitted only once across iterations")
}

func TestRun_ContextCancel(t *testing.T) {
	src := newFakeSource()
	src.snapshots[feedURL] = [][]*models.Entry{{dated("a", 1)}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	tailer := newTailer(t, []string{feedURL}, src, nil, nil, &out, Options{Interval: time.Hour})

	// First cycle runs, then the canceled context interrupts the sleep
	err := tailer.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, src.calls[feedURL])
}

// ABOUTME: Core tail pipeline: novelty filter, dedupe, order, and format per poll cycle
// ABOUTME: Runs the polling loop and threads seen-state through the store between cycles

package tail

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/rsstail/internal/filter"
	"github.com/harper/rsstail/internal/format"
	"github.com/harper/rsstail/internal/state"
)

// Options control how entries are selected and presented.
type Options struct {
	// Interval is the pause between poll cycles.
	Interval time.Duration
	// Iterations bounds the number of cycles; 0 polls forever.
	Iterations int
	// Initial caps the first cycle of a feed to the N most recent
	// entries; 0 shows all.
	Initial int
	// NewerThan excludes entries older than this date on every cycle.
	NewerThan *time.Time
	// Reverse shows newest entries first.
	Reverse bool
	// Unique drops entries whose identity has already been shown.
	Unique bool
	// FailFast turns per-feed fetch/parse/persist problems into fatal
	// errors instead of skipping the feed for the cycle.
	FailFast bool
}

// Status tags the outcome of one feed's poll cycle.
type Status int

const (
	// StatusOK means the cycle completed, possibly emitting entries.
	StatusOK Status = iota
	// StatusSkipped means this feed contributed nothing this cycle and
	// its state is unchanged; polling continues.
	StatusSkipped
	// StatusFatal means the run should stop.
	StatusFatal
)

// FeedResult reports one feed's poll cycle to the loop.
type FeedResult struct {
	URL     string
	Status  Status
	Emitted int
	Err     error
}

// Tailer polls a set of feeds and writes newly seen entries to out.
type Tailer struct {
	urls      []string
	source    Source
	store     state.Store
	formatter *format.Formatter
	out       io.Writer
	logger    *log.Logger
	opts      Options

	dedupers    map[string]*filter.Deduper
	headingDone bool
}

// New assembles a Tailer. The formatter must already be compiled; all
// configuration errors belong before this point.
func New(urls []string, source Source, store state.Store, formatter *format.Formatter, out io.Writer, logger *log.Logger, opts Options) *Tailer {
	return &Tailer{
		urls:      urls,
		source:    source,
		store:     store,
		formatter: formatter,
		out:       out,
		logger:    logger,
		opts:      opts,
		dedupers:  make(map[string]*filter.Deduper),
	}
}

// Run polls until the iteration limit is reached or ctx is canceled.
// The sleep comes before the poll on every cycle but the first, so a
// bounded run never ends with a useless trailing wait.
func (t *Tailer) Run(ctx context.Context) error {
	for iteration := 0; ; iteration++ {
		if t.opts.Iterations > 0 && iteration >= t.opts.Iterations {
			t.logger.Debug("iteration limit reached", "iterations", t.opts.Iterations)
			return nil
		}

		if iteration > 0 {
			t.logger.Debug("sleeping", "interval", t.opts.Interval)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(t.opts.Interval):
			}
		}

		if err := t.Poll(ctx); err != nil {
			return err
		}
	}
}

// Poll runs one cycle over every feed. Per-feed problems skip that feed
// unless FailFast is set; a fatal result stops the run.
func (t *Tailer) Poll(ctx context.Context) error {
	for _, url := range t.urls {
		res := t.pollFeed(ctx, url)
		switch res.Status {
		case StatusFatal:
			return fmt.Errorf("%s: %w", res.URL, res.Err)
		case StatusSkipped:
			t.logger.Error("skipping feed this cycle", "url", res.URL, "err", res.Err)
		default:
			t.logger.Debug("polled feed", "url", res.URL, "new", res.Emitted)
		}
	}
	return nil
}

// pollFeed runs the snapshot -> novelty -> dedupe -> order -> format
// pipeline for one feed and advances its persisted state.
func (t *Tailer) pollFeed(ctx context.Context, url string) FeedResult {
	st := t.store.Load(url)

	update, err := t.source.Fetch(ctx, url, st.ETag, st.LastModified)
	if err != nil {
		status := StatusSkipped
		if t.opts.FailFast {
			status = StatusFatal
		}
		return FeedResult{URL: url, Status: status, Err: err}
	}

	if update.NotModified {
		t.logger.Debug("feed not modified", "url", url)
		return FeedResult{URL: url, Status: StatusOK}
	}

	res := filter.Novel(update.Entries, st.LastTimestamp, t.opts.NewerThan, t.opts.Initial)
	if res.Undated > 0 {
		t.logger.Warn("ignoring entries without timestamps", "url", url, "count", res.Undated)
	}

	entries := res.Entries
	if t.opts.Unique {
		deduper, ok := t.dedupers[url]
		if !ok {
			deduper = filter.NewDeduper(st.SeenIDs)
			t.dedupers[url] = deduper
		}
		entries = deduper.Apply(entries)
		st.SeenIDs = deduper.Seen()
	}

	Order(entries, t.opts.Reverse)

	if !t.headingDone && len(entries) > 0 && t.formatter.Heading() != "" {
		io.WriteString(t.out, t.formatter.Heading())
		t.headingDone = true
	}
	for _, entry := range entries {
		io.WriteString(t.out, t.formatter.Render(entry))
	}

	// High-water mark covers everything that qualified this cycle, shown
	// or deduped; deduped entries were already shown in an earlier cycle.
	for _, entry := range res.Entries {
		st.Advance(entry.Timestamp())
	}
	st.ETag = update.ETag
	st.LastModified = update.LastModified

	if err := t.store.Save(url, st); err != nil {
		if t.opts.FailFast {
			return FeedResult{URL: url, Status: StatusFatal, Emitted: len(entries), Err: err}
		}
		t.logger.Error("could not persist feed state", "url", url, "err", err)
	}

	return FeedResult{URL: url, Status: StatusOK, Emitted: len(entries)}
}

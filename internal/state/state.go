// ABOUTME: Per-feed seen-state tracking with in-memory and durable JSON-file stores
// ABOUTME: Keeps the novelty high-water mark, seen identities, and HTTP validators

package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// SeenState is the per-feed record consumed and produced by a poll cycle.
type SeenState struct {
	// LastTimestamp is the most recent entry timestamp already shown.
	// Nil until the feed's first successful poll. Monotonically
	// non-decreasing across updates.
	LastTimestamp *time.Time `json:"last_timestamp,omitempty"`
	// SeenIDs are entry identities already observed, oldest first.
	// Populated only when deduplication is enabled.
	SeenIDs []string `json:"seen_ids,omitempty"`
	// ETag and LastModified are HTTP validators from the last fetch,
	// kept so conditional requests survive restarts.
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

// Advance raises the high-water mark to ts. A nil or older ts is ignored,
// keeping LastTimestamp monotonic.
func (s *SeenState) Advance(ts *time.Time) {
	if ts == nil {
		return
	}
	if s.LastTimestamp == nil || ts.After(*s.LastTimestamp) {
		t := *ts
		s.LastTimestamp = &t
	}
}

// CacheIOError reports a failure to persist seen-state.
type CacheIOError struct {
	Path string
	Err  error
}

func (e *CacheIOError) Error() string {
	return fmt.Sprintf("cache %s: %v", e.Path, e.Err)
}

func (e *CacheIOError) Unwrap() error { return e.Err }

// Store tracks SeenState per feed URL. Load never fails: missing or
// unreadable state degrades to an empty record. Save may fail for durable
// stores. Implementations are safe for concurrent use across keys.
type Store interface {
	Load(key string) SeenState
	Save(key string, st SeenState) error
}

// MemoryStore keeps state for the lifetime of the process only.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]SeenState
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]SeenState)}
}

func (m *MemoryStore) Load(key string) SeenState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[key]
}

func (m *MemoryStore) Save(key string, st SeenState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[key] = st
	return nil
}

// FileStore persists the whole {feed URL -> SeenState} map as one JSON
// file, rewritten atomically on every save. A coarse store-wide lock keeps
// concurrent per-feed saves from interleaving; at tens of feeds that is
// plenty.
type FileStore struct {
	path   string
	logger *log.Logger

	mu     sync.Mutex
	states map[string]SeenState
}

// NewFileStore opens (or initializes) the cache file at path. A missing or
// corrupt file is not an error: the store starts empty and reports the
// problem at debug level.
func NewFileStore(path string, logger *log.Logger) *FileStore {
	fs := &FileStore{
		path:   path,
		logger: logger,
		states: make(map[string]SeenState),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Debug("cache unreadable, starting fresh", "path", path, "err", err)
		}
		return fs
	}

	if err := json.Unmarshal(data, &fs.states); err != nil {
		logger.Debug("cache corrupt, starting fresh", "path", path, "err", err)
		fs.states = make(map[string]SeenState)
	}
	return fs
}

func (f *FileStore) Load(key string) SeenState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[key]
}

// Save records st for key and rewrites the cache file. The write goes
// through a temp file and rename so a crash never leaves a partial cache.
func (f *FileStore) Save(key string, st SeenState) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.states[key] = st

	data, err := json.MarshalIndent(f.states, "", "  ")
	if err != nil {
		return &CacheIOError{Path: f.path, Err: err}
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".rsstail-cache-*")
	if err != nil {
		return &CacheIOError{Path: f.path, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &CacheIOError{Path: f.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &CacheIOError{Path: f.path, Err: err}
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return &CacheIOError{Path: f.path, Err: err}
	}
	return nil
}

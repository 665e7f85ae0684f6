// Package snapshot provides a keyed cache of per-week metric value bundles
// with whole-collection persistence and a batch write mode for call sites
// that save dozens of metrics across dozens of weeks in one operation.
package snapshot

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultWeeksToKeep is the retention window applied by Cleanup when the
// caller passes no explicit value.
const DefaultWeeksToKeep = 52

// ErrBatchActive is returned when a second batch scope is requested while one
// is still open. Nesting would silently corrupt the flush semantics, so it
// fails fast instead.
var ErrBatchActive = errors.New("snapshot: batch write already active")

// CollectionCache holds the last-loaded collection keyed by workspace
// identity. Loading under a different workspace forces a full reload; there
// is no time-based expiry. It may be shared between stores.
type CollectionCache struct {
	mu          sync.Mutex
	workspaceID string
	col         Collection
	loaded      bool
}

// NewCollectionCache creates an empty cache.
func NewCollectionCache() *CollectionCache {
	return &CollectionCache{}
}

func (c *CollectionCache) get(workspaceID string) (Collection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded || c.workspaceID != workspaceID {
		return nil, false
	}
	return c.col, true
}

func (c *CollectionCache) put(workspaceID string, col Collection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workspaceID = workspaceID
	c.col = col
	c.loaded = true
}

// Store is the snapshot cache for one workspace. All mutating operations are
// guarded by a single lock; callers never observe a partially written
// collection.
type Store struct {
	mu          sync.Mutex
	backend     Backend
	cache       *CollectionCache
	workspaceID string
	batch       *BatchWriter

	clock func() time.Time
}

// NewStore binds a store to a workspace. Passing the same cache to stores for
// different workspaces preserves the reload-on-workspace-change behavior.
func NewStore(backend Backend, cache *CollectionCache, workspaceID string) *Store {
	if cache == nil {
		cache = NewCollectionCache()
	}
	return &Store{
		backend:     backend,
		cache:       cache,
		workspaceID: workspaceID,
		clock:       time.Now,
	}
}

// load returns the current collection, consulting the identity-keyed cache
// first. Caller must hold s.mu.
func (s *Store) load() (Collection, error) {
	if col, ok := s.cache.get(s.workspaceID); ok {
		return col, nil
	}
	col, err := s.backend.Load(s.workspaceID)
	if err != nil {
		return nil, err
	}
	s.cache.put(s.workspaceID, col)
	return col, nil
}

// Save stamps data with the current UTC timestamp and writes it, replacing
// any prior value for (week, metric) entirely. Outside batch mode every call
// is a full load-modify-rewrite of the collection, which is why bulk callers
// should use BeginBatch.
func (s *Store) Save(week, metric string, data Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamped := data.Clone()
	stamped["timestamp"] = s.clock().UTC().Format(time.RFC3339)

	if s.batch != nil {
		s.batch.set(week, metric, stamped)
		return nil
	}

	col, err := s.load()
	if err != nil {
		return err
	}
	col = col.Clone()
	setEntry(col, week, metric, stamped)

	if err := s.backend.Store(s.workspaceID, col); err != nil {
		return fmt.Errorf("failed to persist snapshot %s/%s: %w", week, metric, err)
	}
	s.cache.put(s.workspaceID, col)
	return nil
}

// Get returns the value bundle for (week, metric), or nil when absent.
func (s *Store) Get(week, metric string) (Fields, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.load()
	if err != nil {
		return nil, err
	}
	metrics, ok := col[week]
	if !ok {
		return nil, nil
	}
	fields, ok := metrics[metric]
	if !ok {
		return nil, nil
	}
	return fields.Clone(), nil
}

// GetLastNWeeksValues walks backward from the most recent available week and
// collects up to nWeeks numeric, non-negative values of one field, skipping
// currentWeek so the caller can forecast it from prior history alone.
// The result is returned oldest-first. Missing or invalid weeks are skipped,
// never zero-filled.
func (s *Store) GetLastNWeeksValues(metric, valueKey string, nWeeks int, currentWeek string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.load()
	if err != nil {
		return nil, err
	}

	weeks := make([]string, 0, len(col))
	for week := range col {
		weeks = append(weeks, week)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(weeks)))

	var values []float64
	for _, week := range weeks {
		if len(values) >= nWeeks {
			break
		}
		if week == currentWeek {
			continue
		}
		fields, ok := col[week][metric]
		if !ok {
			continue
		}
		v, ok := numericValue(fields[valueKey])
		if !ok || v < 0 {
			continue
		}
		values = append(values, v)
	}

	// Collected newest-first; flip to chronological order.
	for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
		values[i], values[j] = values[j], values[i]
	}
	return values, nil
}

// Cleanup removes the oldest weeks beyond the retention window.
// Ordering is lexicographic on the week label, which is only chronologically
// correct within compatible year ranges; a proper year-week comparator is a
// known, deliberate simplification.
func (s *Store) Cleanup(weeksToKeep int) (int, error) {
	if weeksToKeep <= 0 {
		weeksToKeep = DefaultWeeksToKeep
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.load()
	if err != nil {
		return 0, err
	}
	if len(col) <= weeksToKeep {
		return 0, nil
	}

	weeks := make([]string, 0, len(col))
	for week := range col {
		weeks = append(weeks, week)
	}
	sort.Strings(weeks)

	col = col.Clone()
	removed := 0
	for _, week := range weeks[:len(weeks)-weeksToKeep] {
		delete(col, week)
		removed++
	}

	if err := s.backend.Store(s.workspaceID, col); err != nil {
		return 0, fmt.Errorf("failed to persist snapshot cleanup: %w", err)
	}
	s.cache.put(s.workspaceID, col)

	log.Info().Int("removed", removed).Int("kept", weeksToKeep).Msg("Cleaned up old snapshot weeks")
	return removed, nil
}

// BeginBatch loads the collection into memory and suspends per-call writes:
// every Save until Commit mutates only the in-memory copy. Commit flushes the
// whole collection once; Close without Commit discards all accumulated
// changes. Nesting is rejected with ErrBatchActive.
func (s *Store) BeginBatch() (*BatchWriter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.batch != nil {
		return nil, ErrBatchActive
	}

	col, err := s.load()
	if err != nil {
		return nil, err
	}

	bw := &BatchWriter{store: s, col: col.Clone()}
	s.batch = bw
	return bw, nil
}

// BatchWriter accumulates snapshot writes for a single flush. Use it with a
// deferred Close so an error path discards instead of half-flushing:
//
//	bw, err := store.BeginBatch()
//	if err != nil { ... }
//	defer bw.Close()
//	... store.Save(...) repeatedly ...
//	return bw.Commit()
type BatchWriter struct {
	store     *Store
	col       Collection
	committed bool
	closed    bool
}

func (b *BatchWriter) set(week, metric string, fields Fields) {
	setEntry(b.col, week, metric, fields)
}

// Commit flushes the accumulated collection in one backend write and ends the
// batch scope.
func (b *BatchWriter) Commit() error {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.closed {
		return errors.New("snapshot: batch writer already closed")
	}
	b.closed = true
	b.committed = true
	s.batch = nil

	if err := s.backend.Store(s.workspaceID, b.col); err != nil {
		return fmt.Errorf("failed to flush snapshot batch: %w", err)
	}
	s.cache.put(s.workspaceID, b.col)
	return nil
}

// Close ends the batch scope. If Commit was not called the accumulated
// changes are discarded. Close is idempotent and safe to defer.
func (b *BatchWriter) Close() {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	s.batch = nil

	if !b.committed {
		log.Debug().Msg("Discarding uncommitted snapshot batch")
	}
}

func setEntry(col Collection, week, metric string, fields Fields) {
	if col[week] == nil {
		col[week] = make(map[string]Fields)
	}
	col[week][metric] = fields
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

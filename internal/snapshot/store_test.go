package snapshot

import (
	"errors"
	"testing"
	"time"
)

// memBackend keeps collections in memory and counts writes so tests can
// assert on flush behavior.
type memBackend struct {
	data   map[string]Collection
	stores int
}

func newMemBackend() *memBackend {
	return &memBackend{data: map[string]Collection{}}
}

func (m *memBackend) Load(workspaceID string) (Collection, error) {
	col, ok := m.data[workspaceID]
	if !ok {
		return Collection{}, nil
	}
	return col.Clone(), nil
}

func (m *memBackend) Store(workspaceID string, col Collection) error {
	m.stores++
	m.data[workspaceID] = col.Clone()
	return nil
}

func newTestStore(backend Backend) *Store {
	s := NewStore(backend, NewCollectionCache(), "ws-test")
	s.clock = func() time.Time {
		return time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	}
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(newMemBackend())

	if err := s.Save("2025-W22", "velocity", Fields{"value": 12.5}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Get("2025-W22", "velocity")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected snapshot, got nil")
	}
	if got["value"] != 12.5 {
		t.Errorf("Expected value 12.5, got %v", got["value"])
	}
	if got["timestamp"] != "2025-06-02T12:00:00Z" {
		t.Errorf("Unexpected timestamp: %v", got["timestamp"])
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	s := newTestStore(newMemBackend())

	got, err := s.Get("2025-W01", "velocity")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing snapshot, got %v", got)
	}
}

func TestSaveDoesNotAliasCallerMap(t *testing.T) {
	s := newTestStore(newMemBackend())

	data := Fields{"value": 1.0}
	if err := s.Save("2025-W22", "velocity", data); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data["value"] = 99.0

	got, err := s.Get("2025-W22", "velocity")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got["value"] != 1.0 {
		t.Errorf("Stored snapshot aliased caller map: got %v", got["value"])
	}
}

func TestBatchCommitFlushesOnce(t *testing.T) {
	backend := newMemBackend()
	s := newTestStore(backend)

	bw, err := s.BeginBatch()
	if err != nil {
		t.Fatalf("BeginBatch failed: %v", err)
	}
	defer bw.Close()

	for _, week := range []string{"2025-W20", "2025-W21", "2025-W22"} {
		if err := s.Save(week, "velocity", Fields{"value": 5.0}); err != nil {
			t.Fatalf("Save in batch failed: %v", err)
		}
	}
	if backend.stores != 0 {
		t.Fatalf("Expected no backend writes before commit, got %d", backend.stores)
	}

	if err := bw.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if backend.stores != 1 {
		t.Errorf("Expected exactly 1 backend write, got %d", backend.stores)
	}

	got, err := s.Get("2025-W21", "velocity")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Error("Expected committed snapshot to be readable")
	}
}

func TestBatchCloseWithoutCommitDiscards(t *testing.T) {
	backend := newMemBackend()
	s := newTestStore(backend)

	bw, err := s.BeginBatch()
	if err != nil {
		t.Fatalf("BeginBatch failed: %v", err)
	}
	if err := s.Save("2025-W22", "velocity", Fields{"value": 5.0}); err != nil {
		t.Fatalf("Save in batch failed: %v", err)
	}
	bw.Close()

	if backend.stores != 0 {
		t.Errorf("Expected no backend writes after discard, got %d", backend.stores)
	}
	got, err := s.Get("2025-W22", "velocity")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected discarded write to be invisible, got %v", got)
	}
}

func TestBeginBatchRejectsNesting(t *testing.T) {
	s := newTestStore(newMemBackend())

	bw, err := s.BeginBatch()
	if err != nil {
		t.Fatalf("BeginBatch failed: %v", err)
	}
	defer bw.Close()

	if _, err := s.BeginBatch(); !errors.Is(err, ErrBatchActive) {
		t.Errorf("Expected ErrBatchActive, got %v", err)
	}
}

func TestBatchReusableAfterClose(t *testing.T) {
	s := newTestStore(newMemBackend())

	bw, err := s.BeginBatch()
	if err != nil {
		t.Fatalf("BeginBatch failed: %v", err)
	}
	bw.Close()

	bw2, err := s.BeginBatch()
	if err != nil {
		t.Fatalf("Expected new batch after close, got %v", err)
	}
	bw2.Close()
}

func TestGetLastNWeeksValues(t *testing.T) {
	s := newTestStore(newMemBackend())

	weeks := map[string]any{
		"2025-W18": 3.0,
		"2025-W19": 5.0,
		"2025-W20": "not a number",
		"2025-W21": 7.0,
		"2025-W22": 9.0, // current week, must be skipped
	}
	for week, v := range weeks {
		if err := s.Save(week, "velocity", Fields{"value": v}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	values, err := s.GetLastNWeeksValues("velocity", "value", 4, "2025-W22")
	if err != nil {
		t.Fatalf("GetLastNWeeksValues failed: %v", err)
	}

	// W22 is excluded, W20 is skipped as non-numeric; oldest first.
	expected := []float64{3.0, 5.0, 7.0}
	if len(values) != len(expected) {
		t.Fatalf("Expected %d values, got %v", len(expected), values)
	}
	for i, want := range expected {
		if values[i] != want {
			t.Errorf("values[%d]: expected %v, got %v", i, want, values[i])
		}
	}
}

func TestGetLastNWeeksValuesSkipsNegative(t *testing.T) {
	s := newTestStore(newMemBackend())

	if err := s.Save("2025-W20", "velocity", Fields{"value": -4.0}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save("2025-W21", "velocity", Fields{"value": 6.0}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	values, err := s.GetLastNWeeksValues("velocity", "value", 4, "")
	if err != nil {
		t.Fatalf("GetLastNWeeksValues failed: %v", err)
	}
	if len(values) != 1 || values[0] != 6.0 {
		t.Errorf("Expected [6], got %v", values)
	}
}

func TestCleanupKeepsMostRecentWeeks(t *testing.T) {
	backend := newMemBackend()
	s := newTestStore(backend)

	for _, week := range []string{"2025-W18", "2025-W19", "2025-W20", "2025-W21"} {
		if err := s.Save(week, "velocity", Fields{"value": 1.0}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	removed, err := s.Cleanup(2)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 weeks removed, got %d", removed)
	}

	for week, want := range map[string]bool{
		"2025-W18": false,
		"2025-W19": false,
		"2025-W20": true,
		"2025-W21": true,
	} {
		got, err := s.Get(week, "velocity")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if (got != nil) != want {
			t.Errorf("Week %s: expected present=%v, got %v", week, want, got)
		}
	}
}

func TestCacheSharedAcrossStores(t *testing.T) {
	backend := newMemBackend()
	cache := NewCollectionCache()

	a := NewStore(backend, cache, "ws-a")
	a.clock = time.Now
	if err := a.Save("2025-W22", "velocity", Fields{"value": 1.0}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// A store for a different workspace must not see ws-a data through the
	// shared cache.
	b := NewStore(backend, cache, "ws-b")
	got, err := b.Get("2025-W22", "velocity")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("Cross-workspace cache leak: got %v", got)
	}
}

func TestSaveWithForecastAugmentsFields(t *testing.T) {
	s := newTestStore(newMemBackend())

	err := s.SaveWithForecast("2025-W22", "velocity",
		Fields{"value": 12.0},
		ForecastInfo{Value: 10.0, Confidence: 0.8, WeeksAvailable: 6},
		"value", false)
	if err != nil {
		t.Fatalf("SaveWithForecast failed: %v", err)
	}

	got, err := s.Get("2025-W22", "velocity")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got["value"] != 12.0 {
		t.Errorf("Base field altered: %v", got["value"])
	}

	fc, ok := got["forecast"].(Fields)
	if !ok {
		t.Fatalf("Expected forecast sub-map, got %T", got["forecast"])
	}
	if fc["forecast_value"] != 10.0 {
		t.Errorf("Expected forecast_value 10, got %v", fc["forecast_value"])
	}

	trend, ok := got["trend_vs_forecast"].(Fields)
	if !ok {
		t.Fatalf("Expected trend sub-map, got %T", got["trend_vs_forecast"])
	}
	if trend["direction"] != "above_forecast" {
		t.Errorf("Expected above_forecast, got %v", trend["direction"])
	}
	if trend["is_good"] != true {
		t.Errorf("Expected is_good=true, got %v", trend["is_good"])
	}
}

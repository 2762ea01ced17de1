package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragmesh/querycore/internal/cache"
	"github.com/ragmesh/querycore/internal/observability"
)

func TestUsageTrackerRecordAndPopular(t *testing.T) {
	tracker := NewUsageTracker()
	now := time.Now()

	for i := 0; i < 6; i++ {
		tracker.Record("query:a", []string{"src-1"}, 10*time.Millisecond, now)
	}
	tracker.Record("query:b", []string{"src-2"}, 10*time.Millisecond, now)

	popular := tracker.Popular(5, time.Hour, now)
	require.Len(t, popular, 1)
	assert.Equal(t, "query:a", popular[0])
}

func TestUsageTrackerEvictsStale(t *testing.T) {
	tracker := NewUsageTracker()
	old := time.Now().Add(-48 * time.Hour)
	tracker.Record("query:old", nil, time.Millisecond, old)

	evicted := tracker.EvictStale(24*time.Hour, time.Now())
	assert.Equal(t, 1, evicted)

	_, ok := tracker.Get("query:old")
	assert.False(t, ok)
}

func TestUsageTrackerRecordsForSource(t *testing.T) {
	tracker := NewUsageTracker()
	now := time.Now()
	tracker.Record("query:a", []string{"src-1", "src-2"}, time.Millisecond, now)
	tracker.Record("query:b", []string{"src-2"}, time.Millisecond, now)
	tracker.Record("query:c", []string{"src-3"}, time.Millisecond, now)

	keys := tracker.RecordsForSource("src-2")
	assert.ElementsMatch(t, []string{"query:a", "query:b"}, keys)
}

func TestWindowSnapshotComputesPercentileAndRates(t *testing.T) {
	w := NewWindow(24 * time.Hour)
	now := time.Now()

	for i := 0; i < 10; i++ {
		w.RecordQuery(QueryMetric{
			QueryID:  "q",
			Start:    now,
			Duration: time.Duration(i+1) * 10 * time.Millisecond,
			Success:  i != 0,
			Cached:   i%2 == 0,
		}, now)
	}

	snap := w.Snapshot()
	assert.Equal(t, 10, snap.Count)
	assert.InDelta(t, 0.1, snap.ErrorRate, 1e-9)
	assert.InDelta(t, 0.5, snap.CacheHitRate, 1e-9)
	assert.Greater(t, snap.P95Ms, snap.MeanMs*0.5)
}

func TestWindowTrimsEntriesOutsideRetention(t *testing.T) {
	w := NewWindow(time.Hour)
	old := time.Now().Add(-2 * time.Hour)
	w.RecordQuery(QueryMetric{Start: old, Duration: time.Millisecond, Success: true}, old)
	w.RecordQuery(QueryMetric{Start: time.Now(), Duration: time.Millisecond, Success: true}, time.Now())

	snap := w.Snapshot()
	assert.Equal(t, 1, snap.Count)
}

func TestCheckAlertsFiresOnBreach(t *testing.T) {
	thresholds := AlertThresholds{P95ResponseTimeMs: 100, ErrorRate: 0.1, CacheHitRate: 0.5, MemoryFraction: 0.8}
	snap := Snapshot{P95Ms: 500, ErrorRate: 0.5, CacheHitRate: 0.1}

	events := CheckAlerts(snap, 0.95, thresholds, time.Now())
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name
	}
	assert.ElementsMatch(t, []string{"p95_response_time_ms", "error_rate", "cache_hit_rate", "memory_fraction"}, names)
}

func TestCheckAlertsNoBreachReturnsEmpty(t *testing.T) {
	thresholds := AlertThresholds{P95ResponseTimeMs: 1000, ErrorRate: 0.5, CacheHitRate: 0.1, MemoryFraction: 0.95}
	snap := Snapshot{P95Ms: 50, ErrorRate: 0.01, CacheHitRate: 0.9}

	events := CheckAlerts(snap, 0.5, thresholds, time.Now())
	assert.Empty(t, events)
}

func TestRollupHealthDegradesOnMemoryPressure(t *testing.T) {
	healthy := RollupHealth(0.8, 0.5, 100, time.Now())
	degraded := RollupHealth(0.8, 0.8, 100, time.Now())
	unhealthy := RollupHealth(0.8, 0.95, 100, time.Now())

	assert.Equal(t, StatusHealthy, healthy.Status)
	assert.Equal(t, StatusDegraded, degraded.Status)
	assert.Equal(t, StatusUnhealthy, unhealthy.Status)
}

func TestMonitorEndQueryRecordsUsageAndAlerts(t *testing.T) {
	cacheStore := cache.NewMemoryBackend(10)
	cfg := Config{Thresholds: AlertThresholds{ErrorRate: 0.01}}
	m := NewMonitor(cfg, cacheStore, observability.NewNopLogger(), observability.NewInMemoryMetrics())

	marker := m.StartQuery("q1")
	events := m.EndQuery(marker, "query:fp1", []string{"src-1"}, false, false)

	require.NotEmpty(t, events)
	assert.Equal(t, "error_rate", events[0].Name)

	rec, ok := m.tracker.Get("query:fp1")
	require.True(t, ok)
	assert.EqualValues(t, 1, rec.Count)
}

func TestMonitorInvalidateSource(t *testing.T) {
	ctx := context.Background()
	cacheStore := cache.NewMemoryBackend(10)
	require.NoError(t, cacheStore.Set(ctx, "query:fp1", []byte(`{"ok":true}`), time.Minute))

	m := NewMonitor(Config{}, cacheStore, observability.NewNopLogger(), nil)
	marker := m.StartQuery("q1")
	m.EndQuery(marker, "query:fp1", []string{"src-1"}, true, false)

	n := m.InvalidateSource(ctx, "src-1")
	assert.Equal(t, 1, n)

	_, ok := cacheStore.Get(ctx, "query:fp1")
	assert.False(t, ok)
}

func TestMonitorHealthReflectsWindow(t *testing.T) {
	cacheStore := cache.NewMemoryBackend(10)
	m := NewMonitor(Config{}, cacheStore, observability.NewNopLogger(), nil)

	marker := m.StartQuery("q1")
	m.EndQuery(marker, "", nil, true, true)

	health := m.Health()
	assert.Equal(t, StatusHealthy, health.Status)
}

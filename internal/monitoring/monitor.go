package monitoring

import (
	"context"
	"time"

	"github.com/ragmesh/querycore/internal/cache"
	"github.com/ragmesh/querycore/internal/observability"
)

// Marker is the start-time handle returned by StartQuery and consumed by
// EndQuery to compute a query's response time.
type Marker struct {
	QueryID string
	Start   time.Time
}

// Monitor is the façade composing usage tracking, cache warming, the
// sliding metrics window, alerting, and health roll-up.
type Monitor struct {
	cfg     Config
	tracker *UsageTracker
	window  *Window
	warmer  *Warmer
	cache   cache.Store
	logger  observability.Logger
	metrics observability.MetricsClient
}

// NewMonitor wires a Monitor to its cache backend.
func NewMonitor(cfg Config, cacheStore cache.Store, logger observability.Logger, metrics observability.MetricsClient) *Monitor {
	cfg.applyDefaults()
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	tracker := NewUsageTracker()
	return &Monitor{
		cfg:     cfg,
		tracker: tracker,
		window:  NewWindow(cfg.WindowRetention),
		warmer:  NewWarmer(tracker, cacheStore, cfg, logger),
		cache:   cacheStore,
		logger:  logger,
		metrics: metrics,
	}
}

// Run starts the background warming tick and stale-usage eviction ticker,
// blocking until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	go m.warmer.Run(ctx)
	m.runEvictionLoop(ctx)
}

func (m *Monitor) runEvictionLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.StaleEvictionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := m.tracker.EvictStale(m.cfg.MaxAge, time.Now())
			if evicted > 0 {
				m.logger.Debug("evicted stale usage records", observability.Fields{"count": evicted})
			}
		}
	}
}

// StartQuery returns a marker recording the query's start time.
func (m *Monitor) StartQuery(queryID string) Marker {
	return Marker{QueryID: queryID, Start: time.Now()}
}

// EndQuery records a completed query's metrics and usage, and returns any
// alert events the completion triggered.
func (m *Monitor) EndQuery(marker Marker, queryCacheKey string, sources []string, success, cached bool) []AlertEvent {
	now := time.Now()
	duration := now.Sub(marker.Start)

	m.window.RecordQuery(QueryMetric{
		QueryID:  marker.QueryID,
		Start:    marker.Start,
		Duration: duration,
		Success:  success,
		Cached:   cached,
	}, now)

	if queryCacheKey != "" {
		m.tracker.Record(queryCacheKey, sources, duration, now)
	}

	if m.metrics != nil {
		m.metrics.RecordDuration("monitoring.query.duration", duration, nil)
	}

	return m.checkAlerts(now)
}

func (m *Monitor) checkAlerts(now time.Time) []AlertEvent {
	snap := m.window.Snapshot()
	memoryFraction := m.window.LatestMemoryFraction()
	events := CheckAlerts(snap, memoryFraction, m.cfg.Thresholds, now)
	for _, e := range events {
		m.logger.Warn("alert threshold breached", observability.Fields{"alert": e.Name, "value": e.Value, "threshold": e.Threshold})
		if m.metrics != nil {
			m.metrics.IncrementCounter("monitoring.alert."+e.Name, 1, nil)
		}
	}
	return events
}

// RecordSystemSample feeds a system resource reading into the window.
func (m *Monitor) RecordSystemSample(sample SystemSample) {
	m.window.RecordSystemSample(sample, time.Now())
}

// Health returns the current roll-up.
func (m *Monitor) Health() HealthReport {
	snap := m.window.Snapshot()
	memoryFraction := m.window.LatestMemoryFraction()
	return RollupHealth(snap.CacheHitRate, memoryFraction, snap.MeanMs, time.Now())
}

// InvalidateSource invalidates every cached result touched by sourceID.
func (m *Monitor) InvalidateSource(ctx context.Context, sourceID string) int {
	return InvalidateForSource(ctx, m.cache, m.tracker, sourceID)
}

package monitoring

import (
	"sort"
	"sync"
	"time"
)

// Window retains per-query metrics for a fixed retention period (24h by
// default), trimming stale entries lazily on each mutation.
type Window struct {
	mu        sync.Mutex
	retention time.Duration
	metrics   []QueryMetric
	samples   []SystemSample
}

// NewWindow returns an empty window retaining entries for retention.
func NewWindow(retention time.Duration) *Window {
	return &Window{retention: retention}
}

// RecordQuery appends a completed query's metric, trimming anything older
// than the retention window.
func (w *Window) RecordQuery(m QueryMetric, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.metrics = append(w.metrics, m)
	w.trimQueries(now)
}

// RecordSystemSample appends a system resource reading.
func (w *Window) RecordSystemSample(s SystemSample, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = append(w.samples, s)
	w.trimSamples(now)
}

func (w *Window) trimQueries(now time.Time) {
	cutoff := now.Add(-w.retention)
	i := 0
	for i < len(w.metrics) && w.metrics[i].Start.Before(cutoff) {
		i++
	}
	w.metrics = w.metrics[i:]
}

func (w *Window) trimSamples(now time.Time) {
	cutoff := now.Add(-w.retention)
	i := 0
	for i < len(w.samples) && w.samples[i].Timestamp.Before(cutoff) {
		i++
	}
	w.samples = w.samples[i:]
}

// Snapshot summarizes the current window: p95 response time, error rate,
// cache hit rate among window entries, and count.
type Snapshot struct {
	Count        int
	P95Ms        float64
	ErrorRate    float64
	CacheHitRate float64
	MeanMs       float64
}

// Snapshot computes the current rolling summary.
func (w *Window) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.metrics) == 0 {
		return Snapshot{}
	}

	durations := make([]float64, len(w.metrics))
	var errCount, cacheCount int
	var sum float64
	for i, m := range w.metrics {
		ms := float64(m.Duration.Milliseconds())
		durations[i] = ms
		sum += ms
		if !m.Success {
			errCount++
		}
		if m.Cached {
			cacheCount++
		}
	}
	sort.Float64s(durations)

	return Snapshot{
		Count:        len(w.metrics),
		P95Ms:        percentile(durations, 0.95),
		ErrorRate:    float64(errCount) / float64(len(w.metrics)),
		CacheHitRate: float64(cacheCount) / float64(len(w.metrics)),
		MeanMs:       sum / float64(len(w.metrics)),
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p*float64(len(sorted)-1) + 0.5)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// LatestMemoryFraction returns the most recent system sample's memory
// fraction, or 0 if none has been recorded.
func (w *Window) LatestMemoryFraction() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.samples) == 0 {
		return 0
	}
	return w.samples[len(w.samples)-1].MemoryFraction
}

package observability

import (
	"sync"
	"time"
)

// MetricsClient is the metrics capability shared by resilience and
// monitoring components: counters, gauges, and durations, each with an
// optional label map.
type MetricsClient interface {
	IncrementCounter(name string, value float64, labels map[string]string)
	RecordGauge(name string, value float64, labels map[string]string)
	RecordDuration(name string, d time.Duration, labels map[string]string)
}

// InMemoryMetrics is a process-local metrics sink; a real deployment would
// swap this for a Prometheus registry.
type InMemoryMetrics struct {
	mu        sync.Mutex
	counters  map[string]float64
	gauges    map[string]float64
	durations map[string][]time.Duration
}

// NewInMemoryMetrics returns a MetricsClient backed by in-process maps.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters:  make(map[string]float64),
		gauges:    make(map[string]float64),
		durations: make(map[string][]time.Duration),
	}
}

func (m *InMemoryMetrics) IncrementCounter(name string, value float64, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] += value
}

func (m *InMemoryMetrics) RecordGauge(name string, value float64, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = value
}

func (m *InMemoryMetrics) RecordDuration(name string, d time.Duration, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[name] = append(m.durations[name], d)
}

// Snapshot returns copies of the current counters and gauges. The
// monitoring health rollup does not read it; it works from its own window.
func (m *InMemoryMetrics) Snapshot() (counters, gauges map[string]float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counters = make(map[string]float64, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}
	gauges = make(map[string]float64, len(m.gauges))
	for k, v := range m.gauges {
		gauges[k] = v
	}
	return counters, gauges
}

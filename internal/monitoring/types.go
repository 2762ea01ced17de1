// Package monitoring tracks query popularity to feed a periodic
// cache-warming tick, aggregates per-query and system metrics over a
// sliding window, detects alert-threshold breaches, and rolls all of it up
// into a single health status.
package monitoring

import "time"

// Status is a three-state health vocabulary: healthy, degraded, unhealthy.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// UsageRecord tracks how often and how recently one cached query result has
// been served, and which sources contributed to it.
type UsageRecord struct {
	QueryKey     string
	Sources      []string
	Count        int64
	LastAccessed time.Time
	AvgLatency   time.Duration
}

// AlertThresholds configures the breach checks run on each query completion.
type AlertThresholds struct {
	P95ResponseTimeMs float64
	ErrorRate         float64
	CacheHitRate      float64
	MemoryFraction    float64
}

// Config configures a Monitor instance.
type Config struct {
	WarmingInterval       time.Duration
	PopularityThreshold   int64
	MaxAge                time.Duration
	StaleEvictionInterval time.Duration
	WarmBatchSize         int
	WarmBatchDelay        time.Duration
	WindowRetention       time.Duration
	Thresholds            AlertThresholds
}

func (c *Config) applyDefaults() {
	if c.WarmingInterval == 0 {
		c.WarmingInterval = 5 * time.Minute
	}
	if c.PopularityThreshold == 0 {
		c.PopularityThreshold = 5
	}
	if c.MaxAge == 0 {
		c.MaxAge = 24 * time.Hour
	}
	if c.StaleEvictionInterval == 0 {
		c.StaleEvictionInterval = time.Hour
	}
	if c.WarmBatchSize == 0 {
		c.WarmBatchSize = 10
	}
	if c.WarmBatchDelay == 0 {
		c.WarmBatchDelay = 50 * time.Millisecond
	}
	if c.WindowRetention == 0 {
		c.WindowRetention = 24 * time.Hour
	}
}

// QueryMetric is one completed query's observed performance.
type QueryMetric struct {
	QueryID  string
	Start    time.Time
	Duration time.Duration
	Success  bool
	Cached   bool
}

// SystemSample is one point-in-time system resource reading.
type SystemSample struct {
	Timestamp      time.Time
	MemoryFraction float64
	CPUFraction    float64
}

// AlertEvent is emitted when a completion pushes a rolling metric past its
// configured threshold.
type AlertEvent struct {
	Name      string
	Value     float64
	Threshold float64
	Timestamp time.Time
}

// HealthReport is the roll-up of cache + memory + response-time health.
type HealthReport struct {
	Status         Status
	CacheHitRate   float64
	MemoryFraction float64
	MeanResponseMs float64
	Timestamp      time.Time
}

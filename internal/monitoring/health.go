package monitoring

import "time"

// RollupHealth combines cache hit rate, memory fraction, and rolling mean
// response time into a single status.
func RollupHealth(cacheHitRate, memoryFraction, meanResponseMs float64, now time.Time) HealthReport {
	status := StatusHealthy
	switch {
	case memoryFraction > 0.9 || meanResponseMs > 5000:
		status = StatusUnhealthy
	case memoryFraction > 0.75 || cacheHitRate < 0.3 || meanResponseMs > 2000:
		status = StatusDegraded
	}

	return HealthReport{
		Status:         status,
		CacheHitRate:   cacheHitRate,
		MemoryFraction: memoryFraction,
		MeanResponseMs: meanResponseMs,
		Timestamp:      now,
	}
}

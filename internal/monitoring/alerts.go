package monitoring

import "time"

// CheckAlerts compares a window snapshot plus the latest memory reading
// against thresholds, returning one AlertEvent per breach.
func CheckAlerts(snap Snapshot, memoryFraction float64, thresholds AlertThresholds, now time.Time) []AlertEvent {
	var events []AlertEvent

	if thresholds.P95ResponseTimeMs > 0 && snap.P95Ms > thresholds.P95ResponseTimeMs {
		events = append(events, AlertEvent{Name: "p95_response_time_ms", Value: snap.P95Ms, Threshold: thresholds.P95ResponseTimeMs, Timestamp: now})
	}
	if thresholds.ErrorRate > 0 && snap.ErrorRate > thresholds.ErrorRate {
		events = append(events, AlertEvent{Name: "error_rate", Value: snap.ErrorRate, Threshold: thresholds.ErrorRate, Timestamp: now})
	}
	if thresholds.CacheHitRate > 0 && snap.CacheHitRate < thresholds.CacheHitRate {
		events = append(events, AlertEvent{Name: "cache_hit_rate", Value: snap.CacheHitRate, Threshold: thresholds.CacheHitRate, Timestamp: now})
	}
	if thresholds.MemoryFraction > 0 && memoryFraction > thresholds.MemoryFraction {
		events = append(events, AlertEvent{Name: "memory_fraction", Value: memoryFraction, Threshold: thresholds.MemoryFraction, Timestamp: now})
	}

	return events
}

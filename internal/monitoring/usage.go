package monitoring

import (
	"sort"
	"sync"
	"time"
)

// UsageTracker records per-query-result popularity for the warming tick and
// the stale-eviction ticker.
type UsageTracker struct {
	mu      sync.Mutex
	records map[string]*UsageRecord
}

// NewUsageTracker returns an empty tracker.
func NewUsageTracker() *UsageTracker {
	return &UsageTracker{records: make(map[string]*UsageRecord)}
}

// Record updates a query key's usage record: count++, lastAccessed = now,
// avgLatency updated via exponential moving average (alpha 0.3), and the
// source set unioned in.
func (t *UsageTracker) Record(queryKey string, sources []string, latency time.Duration, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[queryKey]
	if !ok {
		rec = &UsageRecord{QueryKey: queryKey}
		t.records[queryKey] = rec
	}

	rec.Count++
	rec.LastAccessed = now
	if rec.AvgLatency == 0 {
		rec.AvgLatency = latency
	} else {
		const alpha = 0.3
		rec.AvgLatency = time.Duration(alpha*float64(latency) + (1-alpha)*float64(rec.AvgLatency))
	}
	rec.Sources = unionSources(rec.Sources, sources)
}

func unionSources(existing, additions []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[s] = true
	}
	out := append([]string{}, existing...)
	for _, s := range additions {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Popular returns query keys with count >= threshold and age <= maxAge,
// ordered by score = count / (age_seconds + 1) descending.
func (t *UsageTracker) Popular(threshold int64, maxAge time.Duration, now time.Time) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	type scored struct {
		key   string
		score float64
	}
	var candidates []scored
	for key, rec := range t.records {
		age := now.Sub(rec.LastAccessed)
		if rec.Count < threshold || age > maxAge {
			continue
		}
		score := float64(rec.Count) / (age.Seconds() + 1)
		candidates = append(candidates, scored{key: key, score: score})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	keys := make([]string, len(candidates))
	for i, c := range candidates {
		keys[i] = c.key
	}
	return keys
}

// EvictStale drops usage records whose lastAccessed is older than maxAge.
func (t *UsageTracker) EvictStale(maxAge time.Duration, now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for key, rec := range t.records {
		if now.Sub(rec.LastAccessed) > maxAge {
			delete(t.records, key)
			evicted++
		}
	}
	return evicted
}

// RecordsForSource returns the query keys whose usage record mentions sourceID.
func (t *UsageTracker) RecordsForSource(sourceID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var keys []string
	for key, rec := range t.records {
		for _, s := range rec.Sources {
			if s == sourceID {
				keys = append(keys, key)
				break
			}
		}
	}
	return keys
}

// Get returns a copy of the usage record for key, if any.
func (t *UsageTracker) Get(key string) (UsageRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[key]
	if !ok {
		return UsageRecord{}, false
	}
	return *rec, true
}

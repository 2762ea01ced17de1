// Package cache implements a TTL'd key-value store for query results,
// embeddings, and processed content, with hit/miss stats and prefix
// invalidation. Back-end failures are never surfaced to callers — a failed
// Get is treated as a miss and logged at warn level.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/ragmesh/querycore/internal/observability"
)

// Meta is the bookkeeping sibling stored alongside every value, under the
// "<key>:meta" name.
type Meta struct {
	InsertedAt  time.Time `json:"inserted_at"`
	TTL         time.Duration `json:"ttl"`
	AccessCount int64     `json:"access_count"`
	LastAccess  time.Time `json:"last_access"`
}

// Stats summarizes cache performance since the last Clear.
type Stats struct {
	Hits        int64
	Misses      int64
	Keys        int64
	MemoryBytes int64
	Evictions   int64
}

// HitRate returns hits/(hits+misses), or 0 when there have been no lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Store is the capability every back-end implements. Values are opaque
// JSON-encodable payloads; callers pass already-built key strings following
// the grammar in keys.go.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool)
	Set(ctx context.Context, key string, value json.RawMessage, ttl time.Duration) error
	MGet(ctx context.Context, keys []string) map[string]json.RawMessage
	Invalidate(ctx context.Context, prefix string) int
	Clear(ctx context.Context)
	Stats(ctx context.Context) Stats
	HealthCheck(ctx context.Context) bool
}

// backend is the narrower capability a concrete implementation provides;
// Store wraps a backend with shared stats/meta bookkeeping so every back-end
// gets identical semantics for free, splitting the thin storage primitive
// from the stats/meta wrapper that sits on top of it.
type backend interface {
	rawGet(ctx context.Context, key string) ([]byte, bool, error)
	rawSet(ctx context.Context, key string, value []byte, ttl time.Duration) error
	rawDelete(ctx context.Context, key string) error
	rawKeys(ctx context.Context, prefix string) ([]string, error)
	rawClear(ctx context.Context) error
	rawPing(ctx context.Context) error
	approximateMemoryBytes() int64
	approximateEvictions() int64
}

type store struct {
	backend backend
	logger  observability.Logger

	mu     sync.Mutex
	hits   int64
	misses int64
}

// NewStore wraps a backend with TTL-meta bookkeeping and stats.
func NewStore(b backend, logger observability.Logger) Store {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &store{backend: b, logger: logger}
}

func metaKey(key string) string { return key + ":meta" }

func (s *store) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	raw, ok, err := s.backend.rawGet(ctx, key)
	if err != nil {
		s.logger.Warn("cache get failed, treating as miss", observability.Fields{"key": key, "error": err.Error()})
		s.recordMiss()
		return nil, false
	}
	if !ok {
		s.recordMiss()
		return nil, false
	}
	s.recordHit()
	s.touchMeta(ctx, key)
	return json.RawMessage(raw), true
}

func (s *store) touchMeta(ctx context.Context, key string) {
	mk := metaKey(key)
	var m Meta
	if raw, ok, err := s.backend.rawGet(ctx, mk); err == nil && ok {
		_ = json.Unmarshal(raw, &m)
	}
	m.AccessCount++
	m.LastAccess = time.Now()
	if b, err := json.Marshal(m); err == nil {
		// Meta never expires before the value it describes; a generous TTL
		// keeps it from outliving usefulness without adding a second
		// eviction policy to reason about.
		_ = s.backend.rawSet(ctx, mk, b, 7*24*time.Hour)
	}
}

func (s *store) Set(ctx context.Context, key string, value json.RawMessage, ttl time.Duration) error {
	if ttl < time.Second {
		ttl = time.Second
	}
	if err := s.backend.rawSet(ctx, key, value, ttl); err != nil {
		s.logger.Warn("cache set failed", observability.Fields{"key": key, "error": err.Error()})
		return nil
	}
	m := Meta{InsertedAt: time.Now(), TTL: ttl}
	if b, err := json.Marshal(m); err == nil {
		_ = s.backend.rawSet(ctx, metaKey(key), b, ttl+7*24*time.Hour)
	}
	return nil
}

func (s *store) MGet(ctx context.Context, keys []string) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		if v, ok := s.Get(ctx, k); ok {
			out[k] = v
		}
	}
	return out
}

func (s *store) Invalidate(ctx context.Context, prefix string) int {
	keys, err := s.backend.rawKeys(ctx, prefix)
	if err != nil {
		s.logger.Warn("cache invalidate failed to list keys", observability.Fields{"prefix": prefix, "error": err.Error()})
		return 0
	}
	n := 0
	for _, k := range keys {
		if strings.HasSuffix(k, ":meta") {
			continue
		}
		if err := s.backend.rawDelete(ctx, k); err == nil {
			_ = s.backend.rawDelete(ctx, metaKey(k))
			n++
		}
	}
	return n
}

func (s *store) Clear(ctx context.Context) {
	_ = s.backend.rawClear(ctx)
	s.mu.Lock()
	s.hits, s.misses = 0, 0
	s.mu.Unlock()
}

func (s *store) Stats(ctx context.Context) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, _ := s.backend.rawKeys(ctx, "")
	return Stats{
		Hits:        s.hits,
		Misses:      s.misses,
		Keys:        int64(len(keys)),
		MemoryBytes: s.backend.approximateMemoryBytes(),
		Evictions:   s.backend.approximateEvictions(),
	}
}

func (s *store) HealthCheck(ctx context.Context) bool {
	return s.backend.rawPing(ctx) == nil
}

func (s *store) recordHit() {
	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
}

func (s *store) recordMiss() {
	s.mu.Lock()
	s.misses++
	s.mu.Unlock()
}

package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type memoryEntry struct {
	value    []byte
	expireAt time.Time
}

// memoryBackend is an in-process LRU-bounded cache built on
// hashicorp/golang-lru for size-bounded maps; the library itself has no
// TTL notion, so expireAt is checked on every read.
type memoryBackend struct {
	mu    sync.Mutex
	lru   *lru.Cache[string, *memoryEntry]
	evictions int64
}

// NewMemoryBackend returns a Store backed by an in-process bounded LRU.
func NewMemoryBackend(maxEntries int) Store {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	b := &memoryBackend{}
	c, _ := lru.NewWithEvict[string, *memoryEntry](maxEntries, func(string, *memoryEntry) {
		b.mu.Lock()
		b.evictions++
		b.mu.Unlock()
	})
	b.lru = c
	return NewStore(b, nil)
}

func (m *memoryBackend) rawGet(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(e.expireAt) {
		m.lru.Remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *memoryBackend) rawSet(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Add(key, &memoryEntry{value: value, expireAt: time.Now().Add(ttl)})
	return nil
}

func (m *memoryBackend) rawDelete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Remove(key)
	return nil
}

func (m *memoryBackend) rawKeys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0)
	for _, k := range m.lru.Keys() {
		if prefix == "" || strings.HasPrefix(k, prefix) {
			if e, ok := m.lru.Peek(k); ok && time.Now().Before(e.expireAt) {
				out = append(out, k)
			}
		}
	}
	return out, nil
}

func (m *memoryBackend) rawClear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Purge()
	m.evictions = 0
	return nil
}

func (m *memoryBackend) rawPing(_ context.Context) error { return nil }

func (m *memoryBackend) approximateEvictions() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evictions
}

func (m *memoryBackend) approximateMemoryBytes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, k := range m.lru.Keys() {
		if e, ok := m.lru.Peek(k); ok {
			total += int64(len(k) + len(e.value))
		}
	}
	return total
}

package cache

import (
	"sync"
	"time"
)

// Clock abstracts time for the TTL cache so tests can advance it directly.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func RealClock() Clock { return realClock{} }

type ttlEntry struct {
	value     interface{}
	expiresAt time.Time
}

// TTLCache holds query results for a fixed window. All state lives on the
// instance; there is no package-level cache.
type TTLCache struct {
	mu      sync.RWMutex
	entries map[string]ttlEntry
	ttl     time.Duration
	clock   Clock
}

func NewTTLCache(ttl time.Duration, clock Clock) *TTLCache {
	if clock == nil {
		clock = realClock{}
	}
	return &TTLCache{
		entries: make(map[string]ttlEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.clock.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

func (c *TTLCache) Set(key string, value interface{}) {
	c.mu.Lock()
	c.entries[key] = ttlEntry{value: value, expiresAt: c.clock.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Flush drops everything. Called after any committed stock write; query
// staleness is bounded by the ttl only between writes.
func (c *TTLCache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]ttlEntry)
	c.mu.Unlock()
}

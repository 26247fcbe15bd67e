package cache

import (
	"sync"
	"time"
)

// Entry is a cached value stamped with its computation time. Expired
// entries are detected at read time; there is no background sweep.
type Entry struct {
	Value      interface{}
	ComputedAt time.Time
}

// TTLCache is an in-memory cache with a single time-to-live applied at
// read time. Writes never evict other keys; Clear wipes everything.
type TTLCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

// New creates a TTLCache with the given time-to-live.
func New(ttl time.Duration) *TTLCache {
	return &TTLCache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached value if present and not past the TTL. Expired
// entries are left in place; they are superseded on the next Set.
func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.ComputedAt) >= c.ttl {
		return nil, false
	}
	return entry.Value, true
}

// Set stores a value under key, superseding any prior entry.
func (c *TTLCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry{Value: value, ComputedAt: c.now()}
}

// Clear removes all entries. Clearing is a full wipe, not selective.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

// Len reports the number of stored entries, expired ones included.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// SetClock overrides the cache clock. Test hook.
func (c *TTLCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

package serp

import (
	"sync"
	"time"
)

type cacheEntry struct {
	storedAt time.Time
	resp     *Response
}

// Cache is a fixed-TTL search-result cache keyed on exact request parameters.
// Entries are never evicted proactively; staleness is checked at read time.
// Writes only ever come from the chain, but the mutex keeps it safe if a
// future caller shares one cache across goroutines.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry

	now func() time.Time // test hook
}

// NewCache creates a cache with the given TTL. A non-positive TTL disables
// expiry entirely.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached response for key if present and fresh.
func (c *Cache) Get(key string) (*Response, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.storedAt) > c.ttl {
		return nil, false
	}
	return e.resp, true
}

// Put stores a response under key, replacing any prior entry.
func (c *Cache) Put(key string, resp *Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{storedAt: c.now(), resp: resp}
}

// Len returns the number of stored entries, stale ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Package cache is a small in-process TTL cache for data-source results.
package cache

import (
	"sync"
	"time"
)

// item is a cached value with its expiry.
type item struct {
	value     any
	expiresAt time.Time
}

func (i *item) expired(now time.Time) bool {
	return !now.Before(i.expiresAt)
}

// Cache is a mutex-guarded map with a per-entry TTL.
//
// Concurrent misses on the same key are not coalesced: two callers of
// GetOrFetch may both run the fetch, and the last Set wins.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*item
	ttl   time.Duration
	now   func() time.Time
}

// New creates a cache whose entries live for ttl unless Set with another.
func New(ttl time.Duration) *Cache {
	return &Cache{
		items: make(map[string]*item),
		ttl:   ttl,
		now:   time.Now,
	}
}

// TTL returns the default entry lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the value for key if present and not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if it.expired(c.now()) {
		c.mu.Lock()
		// re-check: another Set may have replaced it
		if cur, ok := c.items[key]; ok && cur == it {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return it.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key for ttl. A non-positive ttl is a no-op.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.items[key] = &item{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Invalidate drops key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]*item)
	c.mu.Unlock()
}

// Prune removes expired entries and returns how many were dropped.
func (c *Cache) Prune() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, it := range c.items {
		if it.expired(now) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

// Size returns the number of stored entries, expired ones included.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// GetOrFetch returns the cached value for key, or calls fetch and caches its
// result on success. Errors are never cached.
func GetOrFetch[T any](c *Cache, key string, fetch func() (T, error)) (T, bool, error) {
	if v, ok := c.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, true, nil
		}
	}
	t, err := fetch()
	if err != nil {
		var zero T
		return zero, false, err
	}
	c.Set(key, t)
	return t, false, nil
}

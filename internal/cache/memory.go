package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultMaxEntries bounds the in-process layer of a long-running server
const DefaultMaxEntries = 10_000

// MemoryCache is the in-process layer, backed by go-cache.
// It holds at most maxEntries values; when full, expired values are swept
// and new values are dropped until room frees up.
type MemoryCache struct {
	items      *gocache.Cache
	maxEntries int
}

// NewMemoryCache creates a memory layer; maxEntries <= 0 uses DefaultMaxEntries
func NewMemoryCache(defaultTTL, sweepInterval time.Duration, maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryCache{
		items:      gocache.New(defaultTTL, sweepInterval),
		maxEntries: maxEntries,
	}
}

// Get returns a copy of the cached value
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	val, found := c.items.Get(key)
	if !found {
		return nil, false
	}
	b, ok := val.([]byte)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

// Set stores a copy of value; ttl 0 uses the default
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	if _, exists := c.items.Get(key); !exists && c.items.ItemCount() >= c.maxEntries {
		c.items.DeleteExpired()
		if c.items.ItemCount() >= c.maxEntries {
			return nil
		}
	}
	c.items.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

// Delete removes key
func (c *MemoryCache) Delete(key string) error {
	c.items.Delete(key)
	return nil
}

// Clear drops every value
func (c *MemoryCache) Clear() error {
	c.items.Flush()
	return nil
}

// Len reports the number of values held, expired ones included until swept
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}

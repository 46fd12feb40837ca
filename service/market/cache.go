package market

import (
	"sync"
)

// Cache is the process-lifetime token metadata cache. Entries are immutable
// once inserted and never evicted. It is an explicit, injectable component so
// tests can substitute an empty or pre-seeded instance.
//
// Safe under concurrent reads. Concurrent first-writes for the same mint are
// benign: both writers insert identical metadata for the same key.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]AssetInfo
}

// NewCache creates an empty metadata cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]AssetInfo),
	}
}

// Get returns the cached entry for a mint, if present.
func (c *Cache) Get(mint string) (AssetInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.entries[mint]
	return info, ok
}

// Put inserts an entry. Existing entries are overwritten, which only happens
// on a cache-miss race where both values are identical.
func (c *Cache) Put(info AssetInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[info.Mint] = info
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

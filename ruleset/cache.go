package ruleset

import (
	"sync"
	"time"
)

// Cache abstracts caching of the active definitions list so the hot
// validation path avoids a store query per request.
type Cache interface {
	// Get retrieves cached definitions, nil on miss or expiry.
	Get() []*Definition

	// Set stores definitions in the cache.
	Set(defs []*Definition)

	// Invalidate clears the cache, forcing a refresh on next Get.
	Invalidate()
}

// CacheConfig holds cache behavior settings.
type CacheConfig struct {
	// TTL is the time-to-live for cached entries. Zero means no
	// expiration (manual invalidation only).
	TTL time.Duration
}

// DefaultCacheConfig returns the defaults: no TTL, invalidate on
// definition mutations only.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: 0}
}

// InMemoryCache is a thread-safe in-memory Cache.
type InMemoryCache struct {
	defs     []*Definition
	cachedAt time.Time
	config   CacheConfig
	valid    bool
	mu       sync.RWMutex
}

// NewInMemoryCache creates an empty in-memory cache.
func NewInMemoryCache(config CacheConfig) *InMemoryCache {
	return &InMemoryCache{config: config}
}

// Get returns the cached definitions, or nil if the cache is invalid or
// expired. The returned slice is a copy.
func (c *InMemoryCache) Get() []*Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid {
		return nil
	}
	if c.config.TTL > 0 && time.Since(c.cachedAt) > c.config.TTL {
		return nil
	}

	out := make([]*Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Set stores a copy of the definitions.
func (c *InMemoryCache) Set(defs []*Definition) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.defs = make([]*Definition, len(defs))
	copy(c.defs, defs)
	c.cachedAt = time.Now()
	c.valid = true
}

// Invalidate clears the cache.
func (c *InMemoryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.valid = false
	c.defs = nil
}

// Package cache provides a small in-process TTL cache.
//
// The limiter uses it to memoize parsed user-agent descriptors: parsing
// is pure, so a hit is always valid, and the TTL only bounds memory for
// long-tail user-agent strings.
//
//	c := cache.New[string](cache.WithTTL(10 * time.Minute))
//	defer c.Close()
package cache

import (
	"sync"
	"time"
)

// Option configures a Cache.
type Option func(*config)

type config struct {
	ttl     time.Duration
	maxKeys int
}

// WithTTL sets the cache entry TTL. Default: 10 minutes.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) { c.ttl = ttl }
}

// WithMaxKeys sets the maximum number of cached keys. When exceeded, the
// oldest entry is evicted. Default: 10000.
func WithMaxKeys(maxKeys int) Option {
	return func(c *config) { c.maxKeys = maxKeys }
}

// Cache is a string-keyed in-process cache with TTL and a size bound.
// Safe for concurrent use.
type Cache[V any] struct {
	config  config
	mu      sync.Mutex
	entries map[string]*entry[V]
	closeCh chan struct{}
	closed  bool
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// New creates a Cache and starts its background eviction loop.
func New[V any](opts ...Option) *Cache[V] {
	cfg := config{
		ttl:     10 * time.Minute,
		maxKeys: 10000,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Cache[V]{
		config:  cfg,
		entries: make(map[string]*entry[V]),
		closeCh: make(chan struct{}),
	}
	go c.evictionLoop()
	return c
}

// Get returns the cached value for key and whether it was present.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.isExpired(e) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value for key, evicting the oldest entry if the cache is
// at capacity.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry[V]{value: value, storedAt: time.Now()}
	c.evictIfOverCapacity()
}

// Len returns the current number of cached keys.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops the background eviction goroutine.
func (c *Cache[V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.closeCh)
	}
}

func (c *Cache[V]) isExpired(e *entry[V]) bool {
	return time.Since(e.storedAt) >= c.config.ttl
}

func (c *Cache[V]) evictIfOverCapacity() {
	if len(c.entries) <= c.config.maxKeys {
		return
	}
	var oldestKey string
	var oldestTime time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.storedAt.Before(oldestTime) {
			oldestKey = k
			oldestTime = e.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *Cache[V]) evictionLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.closeCh:
			return
		}
	}
}

func (c *Cache[V]) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if c.isExpired(e) {
			delete(c.entries, k)
		}
	}
}

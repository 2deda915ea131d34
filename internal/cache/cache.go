// Package cache provides an in-process TTL cache with an injectable clock.
package cache

import (
	"sync"
	"time"
)

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

type entry[V any] struct {
	value     V
	createdAt time.Time
	ttl       time.Duration
}

// Cache is a keyed store whose entries expire a fixed duration after they
// were written. It is safe for concurrent use; concurrent writers to the
// same key resolve last-write-wins.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	now     Clock
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now Clock
}

// WithClock sets the clock used to stamp and expire entries.
func WithClock(now Clock) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an empty cache.
func New[V any](opts ...Option) *Cache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		now:     o.now,
	}
}

// Get returns the value for key if present and not expired. An entry is
// expired once its age reaches its TTL.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if c.expired(e) {
		c.mu.Lock()
		// Only drop the entry we looked at; a concurrent Set may have replaced it.
		if cur, still := c.entries[key]; still && cur.createdAt.Equal(e.createdAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl never expires.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, createdAt: c.now(), ttl: ttl}
	c.mu.Unlock()
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge removes every expired entry and returns how many were dropped.
func (c *Cache[V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *Cache[V]) expired(e entry[V]) bool {
	if e.ttl <= 0 {
		return false
	}
	return c.now().Sub(e.createdAt) >= e.ttl
}

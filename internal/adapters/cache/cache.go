// Package cache provides a time-bound result cache with single-flight
// deduplication: concurrent requests for the same key share one
// computation, and completed results stay valid for one TTL window.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/predictlink/verdict/pkg/metrics"
)

// Default cache configuration constants.
const (
	defaultTTL = 5 * time.Minute
)

// entry is one cached value with its creation time.
type entry struct {
	value     any
	createdAt time.Time
}

// call tracks one in-flight computation shared by concurrent callers.
type call struct {
	done  chan struct{}
	value any
	err   error
}

// Cache is a TTL cache with single-flight semantics. The zero value is not
// usable; construct with New.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]entry
	inflight map[string]*call

	ttl time.Duration
	now func() time.Time
}

// New creates a cache with configuration options.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[string]entry),
		inflight: make(map[string]*call),
		ttl:      defaultTTL,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Do returns the cached value for key when present and fresh. Otherwise it
// runs compute exactly once per key and caches a successful result;
// concurrent callers for the same key wait for that single computation.
// Failed computations are not cached. The hit flag reports whether the
// value came from the cache without running or joining a computation.
func (c *Cache) Do(ctx context.Context, key string, compute func(ctx context.Context) (any, error)) (value any, hit bool, err error) {
	c.mu.Lock()

	if v, ok := c.lookupLocked(key); ok {
		c.mu.Unlock()
		metrics.RecordCacheHit()
		return v, true, nil
	}
	metrics.RecordCacheMiss()

	if cl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-cl.done:
			return cl.value, false, cl.err
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}

	cl := &call{done: make(chan struct{})}
	c.inflight[key] = cl
	c.mu.Unlock()

	cl.value, cl.err = compute(ctx)

	c.mu.Lock()
	delete(c.inflight, key)
	if cl.err == nil {
		c.storeLocked(key, cl.value)
	}
	c.mu.Unlock()
	close(cl.done)

	return cl.value, false, cl.err
}

// Get returns the cached value for key when present and fresh. Stale
// entries are removed on lookup.
func (c *Cache) Get(ctx context.Context, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lookupLocked(key)
	if ok {
		metrics.RecordCacheHit()
	} else {
		metrics.RecordCacheMiss()
	}
	return v, ok
}

// Put stores value under key and opportunistically sweeps expired entries.
func (c *Cache) Put(ctx context.Context, key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeLocked(key, value)
}

// Len returns the current number of entries, including stale ones not yet
// swept or lazily expired.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// lookupLocked returns a fresh value or removes the stale entry.
// Must be called with c.mu held.
func (c *Cache) lookupLocked(key string) (any, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.createdAt) >= c.ttl {
		delete(c.entries, key)
		metrics.RecordCacheEviction()
		metrics.UpdateCacheSize(len(c.entries))
		return nil, false
	}
	return e.value, true
}

// storeLocked writes the entry and sweeps everything older than the TTL.
// A full scan per write is a simplicity trade-off, acceptable at the cache
// sizes this service sees. Must be called with c.mu held.
func (c *Cache) storeLocked(key string, value any) {
	now := c.now()
	c.entries[key] = entry{value: value, createdAt: now}

	for k, e := range c.entries {
		if now.Sub(e.createdAt) >= c.ttl {
			delete(c.entries, k)
			metrics.RecordCacheEviction()
		}
	}
	metrics.UpdateCacheSize(len(c.entries))
}

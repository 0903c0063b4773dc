// Package cache holds resolved operation results for a fixed TTL.
// Concurrent misses for the same key share a single load.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultMaxEntries bounds a cache built with Options.MaxEntries <= 0.
const DefaultMaxEntries = 1024

// Options configures a Cache.
type Options struct {
	TTL time.Duration
	// MaxEntries caps stored entries. The oldest entry is evicted first.
	MaxEntries int
}

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a TTL cache safe for concurrent use.
type Cache struct {
	mu    sync.RWMutex
	items map[string]entry
	order []string // keys in insertion order, oldest first
	opts  Options
	sf    singleflight.Group
	now   func() time.Time
}

// New returns a cache whose entries live for opts.TTL.
func New(opts Options) *Cache {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	return &Cache{items: make(map[string]entry), opts: opts, now: time.Now}
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration { return c.opts.TTL }

// MaxEntries returns the configured size bound.
func (c *Cache) MaxEntries() int { return c.opts.MaxEntries }

// Loader produces the value for a missing key.
type Loader func(ctx context.Context) (any, error)

// Get returns the cached value for key, loading it on a miss. hit reports
// whether the value came from the cache. Load errors are not cached.
//
// A shared load is not cancelled when one of its callers gives up; each
// caller stops waiting when its own ctx ends.
func (c *Cache) Get(ctx context.Context, key string, load Loader) (value any, hit bool, err error) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if ok {
		if now.Before(e.expiresAt) {
			return e.value, true, nil
		}
		c.mu.Lock()
		if cur, ok := c.items[key]; ok && !now.Before(cur.expiresAt) {
			delete(c.items, key)
			c.removeFromOrder(key)
		}
		c.mu.Unlock()
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(key, func() (any, error) {
		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.store(key, v)
		return v, nil
	})
	select {
	case res := <-ch:
		return res.Val, false, res.Err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (c *Cache) store(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if _, ok := c.items[key]; ok {
		c.removeFromOrder(key)
	}
	c.items[key] = entry{value: v, expiresAt: now.Add(c.opts.TTL)}
	c.order = append(c.order, key)
	c.evictIfNeeded(now)
}

// evictIfNeeded drops expired entries from the front of order, then the
// oldest entries until the cache fits MaxEntries. Every entry shares one TTL,
// so order is also expiry order.
func (c *Cache) evictIfNeeded(now time.Time) {
	n := 0
	for n < len(c.order) {
		key := c.order[n]
		if e, ok := c.items[key]; ok && now.Before(e.expiresAt) && len(c.items) <= c.opts.MaxEntries {
			break
		}
		delete(c.items, key)
		n++
	}
	if n > 0 {
		c.order = append(c.order[:0:0], c.order[n:]...)
	}
}

func (c *Cache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Purge drops every entry, expired or not.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.items = make(map[string]entry)
	c.order = nil
	c.mu.Unlock()
}

// Len reports the number of stored entries, including expired ones not yet
// swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Key derives a cache key from an operation name and its arguments.
func Key(operation string, args any) (string, error) {
	b, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("cache key for %s: %w", operation, err)
	}
	return operation + ":" + string(b), nil
}

package fetchcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrFetchFailed is returned to the caller whose fetch failed when no
	// previous value exists.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrDefaultUnavailable is returned to callers that waited on another
	// caller's failed fetch when no previous value exists.
	ErrDefaultUnavailable = errors.New("default unavailable")
)

// DefaultMaxEntries bounds a cache when Options.MaxEntries is zero.
const DefaultMaxEntries = 1024

// FetchError wraps the cause of a failed fetch. It matches ErrFetchFailed.
type FetchError struct {
	Cache string
	Key   string
	Cause error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("%s cache: fetch %s failed: %v", e.Cache, e.Key, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Is reports ErrFetchFailed as a match.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

// Observer receives cache events. Used to export metrics.
type Observer interface {
	CacheHit(cache string)
	CacheMiss(cache string)
	CacheFetchFailed(cache string)
	CacheEntries(cache string, n int)
}

// Options configures a Cache.
type Options struct {
	// MaxEntries bounds the number of keys. The oldest inserted entry is
	// evicted first. Default: 1024.
	MaxEntries int

	// Now returns the current time. Default: time.Now.
	Now func() time.Time

	// Observer receives hit/miss/failure events. Optional.
	Observer Observer
}

// FetchFunc produces a fresh value for a key.
type FetchFunc[V any] func(ctx context.Context) (V, error)

type entry[V any] struct {
	value    V
	inserted time.Time
}

// Cache is a pure-TTL cache with per-key single-flight fetching.
// It is safe for concurrent use.
type Cache[K comparable, V any] struct {
	// name labels logs and metrics
	name string

	// ttl is how long an entry stays fresh after insertion
	ttl time.Duration

	// maxEntries bounds len(entries)
	maxEntries int

	now      func() time.Time
	observer Observer
	logger   *slog.Logger

	// mu protects entries. It is never held while a fetch runs.
	mu      sync.RWMutex
	entries map[K]*entry[V]

	// flights de-duplicates concurrent fetches per key
	flights singleflight.Group
}

// New creates a cache whose entries are fresh for ttl after insertion.
func New[K comparable, V any](name string, ttl time.Duration, opts Options) *Cache[K, V] {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache[K, V]{
		name:       name,
		ttl:        ttl,
		maxEntries: opts.MaxEntries,
		now:        opts.Now,
		observer:   opts.Observer,
		entries:    make(map[K]*entry[V]),
		logger:     slog.Default().With("component", "fetchcache", "cache", name),
	}
}

// Name returns the cache name.
func (c *Cache[K, V]) Name() string {
	return c.name
}

// TTL returns the freshness window.
func (c *Cache[K, V]) TTL() time.Duration {
	return c.ttl
}

// fresh returns the value for key if it was inserted less than ttl ago.
func (c *Cache[K, V]) fresh(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.inserted) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Peek returns the stored value for key regardless of age, and whether it
// is still fresh.
func (c *Cache[K, V]) Peek(key K) (value V, fresh bool, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, found := c.entries[key]
	if !found {
		return value, false, false
	}
	return e.value, c.now().Sub(e.inserted) < c.ttl, true
}

// GetOrFetch returns the fresh value for key, fetching it when it is
// missing or stale. Only one fetch runs per key at a time; concurrent
// callers wait for it and share its result.
//
// When the fetch fails and a previous value exists, that value is returned
// with a nil error. Otherwise the caller that ran the fetch receives an error
// matching ErrFetchFailed and every waiting caller receives
// ErrDefaultUnavailable.
//
// The fetch runs detached from the caller's cancellation so that waiters are
// not failed by one caller going away; fetch functions bound themselves with
// their own timeout. A caller whose ctx is done stops waiting and gets
// ctx.Err().
func (c *Cache[K, V]) GetOrFetch(ctx context.Context, key K, fetch FetchFunc[V]) (V, error) {
	var zero V

	if v, ok := c.fresh(key); ok {
		c.hit()
		return v, nil
	}

	flightKey := fmt.Sprint(key)
	leader := false
	fetchCtx := context.WithoutCancel(ctx)

	ch := c.flights.DoChan(flightKey, func() (any, error) {
		leader = true

		// A caller that missed just before the previous flight stored its
		// value lands here; serve it without fetching again.
		if v, ok := c.fresh(key); ok {
			c.hit()
			return v, nil
		}
		c.miss()

		start := c.now()
		v, err := fetch(fetchCtx)
		if err != nil {
			c.failed()
			if stale, _, ok := c.Peek(key); ok {
				c.logger.Warn("fetch failed, serving stale value",
					"key", flightKey,
					"error", err,
				)
				return stale, nil
			}
			c.logger.Error("fetch failed, no previous value",
				"key", flightKey,
				"error", err,
			)
			return zero, err
		}

		c.store(key, v)
		c.logger.Debug("fetched",
			"key", flightKey,
			"duration_ms", c.now().Sub(start).Milliseconds(),
		)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if leader {
				return zero, &FetchError{Cache: c.name, Key: flightKey, Cause: res.Err}
			}
			return zero, ErrDefaultUnavailable
		}
		return res.Val.(V), nil
	}
}

// Set stores value for key as if it had just been fetched.
func (c *Cache[K, V]) Set(key K, value V) {
	c.store(key, value)
}

func (c *Cache[K, V]) store(key K, value V) {
	c.mu.Lock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[key] = &entry[V]{value: value, inserted: c.now()}
	n := len(c.entries)
	c.mu.Unlock()

	if c.observer != nil {
		c.observer.CacheEntries(c.name, n)
	}
}

// evictOldest removes the entry with the earliest insertion time.
// Caller must hold c.mu.
func (c *Cache[K, V]) evictOldest() {
	var oldestKey K
	var oldest time.Time
	first := true
	for k, e := range c.entries {
		if first || e.inserted.Before(oldest) {
			oldestKey, oldest, first = k, e.inserted, false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

// Invalidate removes key so the next GetOrFetch fetches it.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	n := len(c.entries)
	c.mu.Unlock()

	if c.observer != nil {
		c.observer.CacheEntries(c.name, n)
	}
}

// Purge removes every entry.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()

	if c.observer != nil {
		c.observer.CacheEntries(c.name, 0)
	}
}

// Len returns the number of stored entries, fresh or stale.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[K, V]) hit() {
	if c.observer != nil {
		c.observer.CacheHit(c.name)
	}
}

func (c *Cache[K, V]) miss() {
	if c.observer != nil {
		c.observer.CacheMiss(c.name)
	}
}

func (c *Cache[K, V]) failed() {
	if c.observer != nil {
		c.observer.CacheFetchFailed(c.name)
	}
}

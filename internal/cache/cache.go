package cache

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is applied to new entries when Options.TTL is left zero,
// until overridden via SetTTL.
const DefaultTTL = 120 * time.Second

var (
	ErrClosed          = errors.New("cache: closed")
	ErrInvalidCapacity = errors.New("cache: capacity must be positive")
	ErrInvalidTTL      = errors.New("cache: ttl must be non-negative")
)

// Options controls capacity, expiration, and maintenance behavior.
//
//   - Capacity is the maximum number of entries and must be positive.
//   - TTL is the default time-to-live for new entries; zero selects
//     DefaultTTL.
//   - SweepInterval <= 0 disables background cleanup (lazy expiration
//     still works).
//
// Background cleanup exists to prevent memory growth when keys are written
// once and never read again. Lazy expiration alone can leave dead entries in
// memory indefinitely.
type Options struct {
	Capacity      int
	TTL           time.Duration
	SweepInterval time.Duration
	Logger        hclog.Logger
}

// Cache is a concurrency-safe in-memory key-value cache bounded to a maximum
// entry count, with per-entry expiration and least-recently-used eviction.
//
// The core design is intentionally explicit and "mechanical":
// a map gives O(1) key lookup, and a doubly-linked list maintains recency
// ordering.
//
// Ownership model:
// Cache owns its internal goroutines. Call Close to stop them.
type Cache[K comparable, V any] struct {
	mu sync.RWMutex

	capacity int
	ttl      time.Duration
	items    map[K]*list.Element
	lru      *list.List // Front = most recently used (MRU), Back = least recently used (LRU)

	group  singleflight.Group
	logger hclog.Logger

	// Goroutine ownership.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	sweepEvery time.Duration
	closed     bool
}

// entry is the value stored in the LRU list elements.
// We keep the key here because eviction starts from list nodes.
//
// expiresAt is absolute, fixed at insertion from the TTL in force at that
// moment. Later SetTTL calls never alter it.
type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// New constructs a cache. It rejects misuse (non-positive capacity, negative
// TTL) here so that the data-path operations never grow an error condition of
// their own.
func New[K comparable, V any](opts Options) (*Cache[K, V], error) {
	if opts.Capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	if opts.TTL < 0 {
		return nil, ErrInvalidTTL
	}

	ttl := opts.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Cache[K, V]{
		capacity:   opts.Capacity,
		ttl:        ttl,
		items:      make(map[K]*list.Element),
		lru:        list.New(),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		sweepEvery: opts.SweepInterval,
	}

	if c.sweepEvery > 0 {
		c.wg.Add(1)
		go c.sweepLoop()
	}

	return c, nil
}

// Close stops background goroutines and prevents further mutation.
//
// Close is safe to call multiple times.
func (c *Cache[K, V]) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	// Cancel outside the lock so shutdown doesn't block readers/writers.
	cancel()
	c.wg.Wait()
	return nil
}

// Set inserts or replaces the entry for key with an expiration of now plus
// the current default TTL. Replacing an existing key is atomic: no caller
// observes the key absent or doubly present, and the entry becomes the most
// recently used with a fresh expiration.
//
// If the insert would exceed capacity, the least recently used entry is
// evicted first; entries never read or written since insertion tie-break by
// insertion order, oldest first. Expired entries are reclaimed before any
// live entry is evicted.
func (c *Cache[K, V]) Set(key K, value V) error {
	now := time.Now()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	expiresAt := now.Add(c.ttl)

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		e.value = value
		e.expiresAt = expiresAt

		// Overwriting counts as use; move to MRU.
		c.lru.MoveToFront(el)
		c.mu.Unlock()
		return nil
	}

	el := c.lru.PushFront(&entry[K, V]{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	})
	c.items[key] = el

	evicted := c.evictLocked(now)
	c.mu.Unlock()

	// Log outside the lock; the critical section stays free of I/O.
	if evicted > 0 {
		c.logger.Trace("evicted entries over capacity", "evicted", evicted)
	}
	return nil
}

// Get returns the value for key if a live (non-expired) entry exists. An
// expired entry behaves as absent even before it is physically purged.
//
// It performs lazy expiration: an expired entry found here is removed.
//
// Concurrency note:
// Reads ideally take an RLock, but LRU updates are writes.
// We use an "optimistic read then confirm under write lock" pattern:
//  1. RLock to find entry and check expiry.
//  2. If present and not expired, release RLock.
//  3. Lock and re-check, then move node to front.
//
// This keeps the uncontended fast-path mostly read-locked, while still being
// correct.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	var zero V
	now := time.Now()

	c.mu.RLock()
	el, ok := c.items[key]
	if !ok {
		c.mu.RUnlock()
		return zero, false
	}

	e := el.Value.(*entry[K, V])
	if !e.expiresAt.After(now) {
		// Expired: must upgrade to write lock to delete.
		c.mu.RUnlock()
		c.mu.Lock()
		defer c.mu.Unlock()
		c.removeIfExpiredLocked(key, now)
		return zero, false
	}

	// Moving the LRU node requires a write lock.
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-check because the key could have been deleted/evicted between locks.
	el2, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e2 := el2.Value.(*entry[K, V])
	if !e2.expiresAt.After(now) {
		c.removeLocked(key)
		return zero, false
	}

	c.lru.MoveToFront(el2)
	return e2.value, true
}

// Has reports whether a live entry exists for key, with the same liveness
// semantics as Get. Unlike Get it is a pure read: it neither promotes the
// entry's recency nor purges it when expired.
func (c *Cache[K, V]) Has(key K) bool {
	now := time.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	return el.Value.(*entry[K, V]).expiresAt.After(now)
}

// Delete removes a key if present.
func (c *Cache[K, V]) Delete(key K) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.removeLocked(key)
	return nil
}

// Clear removes all entries immediately, regardless of expiration or
// capacity.
func (c *Cache[K, V]) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.items = make(map[K]*list.Element)
	c.lru.Init()
	return nil
}

// SetCapacity changes the maximum entry count going forward. If n is below
// the current entry count, excess entries are evicted immediately, least
// recently used first.
func (c *Cache[K, V]) SetCapacity(n int) error {
	if n < 1 {
		return ErrInvalidCapacity
	}

	now := time.Now()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	c.capacity = n
	evicted := c.evictLocked(now)
	c.mu.Unlock()

	if evicted > 0 {
		c.logger.Trace("evicted entries after capacity change",
			"capacity", n, "evicted", evicted)
	}
	return nil
}

// SetTTL changes the default TTL applied by subsequent Set calls. Entries
// already stored keep the expiration fixed at their insertion. The duration
// must be non-negative; a zero TTL makes new entries expire immediately.
func (c *Cache[K, V]) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
}

// Len returns the number of currently stored entries.
//
// Note: Len includes entries that have expired but haven't been cleaned up
// yet. Lazy expiration removes them when accessed; the sweep loop removes
// them over time.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Keys returns keys in MRU -> LRU order.
//
// This is a debug helper used by the demo.
func (c *Cache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]K, 0, c.lru.Len())
	for el := c.lru.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*entry[K, V]).key)
	}
	return out
}

// evictLocked reclaims expired entries first, then evicts from the LRU end
// until the entry count fits the capacity. It returns the number of live
// entries evicted over capacity.
func (c *Cache[K, V]) evictLocked(now time.Time) int {
	// Prefer to reclaim expired entries if we're under pressure. This keeps
	// LRU semantics for live keys while treating expired keys as already
	// dead.
	c.removeExpiredLocked(now)

	evicted := 0
	for len(c.items) > c.capacity {
		el := c.lru.Back()
		if el == nil {
			break
		}
		c.removeLocked(el.Value.(*entry[K, V]).key)
		evicted++
	}
	return evicted
}

func (c *Cache[K, V]) removeLocked(key K) {
	el, ok := c.items[key]
	if !ok {
		return
	}
	delete(c.items, key)
	c.lru.Remove(el)
}

func (c *Cache[K, V]) removeIfExpiredLocked(key K, now time.Time) bool {
	el, ok := c.items[key]
	if !ok {
		return false
	}
	if el.Value.(*entry[K, V]).expiresAt.After(now) {
		return false
	}
	c.removeLocked(key)
	return true
}

// removeExpiredLocked removes all expired keys.
//
// This is O(n) and intentionally simple. More complex designs can track
// expirations in a min-heap or timing wheel, but that trades simplicity for
// performance.
func (c *Cache[K, V]) removeExpiredLocked(now time.Time) int {
	removed := 0
	for key, el := range c.items {
		if !el.Value.(*entry[K, V]).expiresAt.After(now) {
			delete(c.items, key)
			c.lru.Remove(el)
			removed++
		}
	}
	return removed
}

package hoard

import "time"

// TimedLRU composes the LRU store with per-entry insertion stamps: capacity
// is enforced by recency eviction, expiry by a predicate on every read.
//
// Unlike Timed, an expired entry is not removed by the read that discovers
// it — it counts as a logical miss and stays until capacity pressure or
// Clear evicts it physically. This keeps reads cheap and makes Len an upper
// bound on the live entry count.
type TimedLRU[K comparable, V any] struct {
	store *LRU[K, stamped[V]]
	ttl   time.Duration
	clock Clock
	stats Stats
}

// NewTimedLRU creates a store bounded by both capacity and lifespan.
// Panics if capacity is zero or negative.
func NewTimedLRU[K comparable, V any](capacity int, ttl time.Duration, opts ...Option) *TimedLRU[K, V] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	var inner []Option
	if cfg.writeRefresh {
		inner = append(inner, WithWriteRefresh())
	}
	return &TimedLRU[K, V]{
		store: NewLRU[K, stamped[V]](capacity, inner...),
		ttl:   ttl,
		clock: cfg.clock,
	}
}

func (c *TimedLRU[K, V]) valid(now time.Time) func(*stamped[V]) bool {
	return func(e *stamped[V]) bool {
		return now.Sub(e.at) < c.ttl
	}
}

// Get retrieves a live value and marks it most recently used. A present
// but expired entry counts as a miss and is left in place.
func (c *TimedLRU[K, V]) Get(key K) (V, bool) {
	e, _, ok := c.store.getIf(key, c.valid(c.clock.Now()))
	if !ok {
		c.stats.miss()
		var zero V
		return zero, false
	}
	c.stats.hit()
	return e.value, true
}

// Update applies fn to the stored value in place, with Get accounting,
// recency and expiry handling.
func (c *TimedLRU[K, V]) Update(key K, fn func(*V)) bool {
	e, _, ok := c.store.getIf(key, c.valid(c.clock.Now()))
	if !ok {
		c.stats.miss()
		return false
	}
	c.stats.hit()
	fn(&e.value)
	return true
}

// GetOrSet returns the existing valid value or computes and inserts one via
// fn. It short-circuits (and counts a hit) only when the expiry predicate
// holds; otherwise fn runs exactly once and overwrites with a fresh stamp.
func (c *TimedLRU[K, V]) GetOrSet(key K, fn func() V) V {
	now := c.clock.Now()
	setter := func() stamped[V] {
		return stamped[V]{at: now, value: fn()}
	}
	e, present, wasValid := c.store.getOrSetIf(key, setter, c.valid(now))
	if present && wasValid {
		c.stats.hit()
	} else {
		c.stats.miss()
	}
	return e.value
}

// GetOrLoad is GetOrSet with a fallible factory; on error nothing is
// inserted.
func (c *TimedLRU[K, V]) GetOrLoad(key K, fn func() (V, error)) (V, error) {
	now := c.clock.Now()
	setter := func() (stamped[V], error) {
		v, err := fn()
		if err != nil {
			return stamped[V]{}, err
		}
		return stamped[V]{at: now, value: v}, nil
	}
	e, present, wasValid, err := c.store.getOrLoadIf(key, setter, c.valid(now))
	if err != nil {
		c.stats.miss()
		var zero V
		return zero, err
	}
	if present && wasValid {
		c.stats.hit()
	} else {
		c.stats.miss()
	}
	return e.value, nil
}

// Set stamps the value with the current time. The previous value is
// returned whenever the key existed, expired or not; recency is not
// refreshed by writes unless the store was built with WithWriteRefresh.
func (c *TimedLRU[K, V]) Set(key K, value V) (V, bool) {
	prev, ok := c.store.Set(key, stamped[V]{at: c.clock.Now(), value: value})
	return prev.value, ok
}

// Remove deletes a key, returning the removed value whether or not it had
// expired.
func (c *TimedLRU[K, V]) Remove(key K) (V, bool) {
	e, ok := c.store.Remove(key)
	return e.value, ok
}

// Clear removes all entries.
func (c *TimedLRU[K, V]) Clear() {
	c.store.Clear()
}

// Reset is Clear: the store is always sized to its fixed capacity.
func (c *TimedLRU[K, V]) Reset() {
	c.store.Reset()
}

// ResetStats zeroes the counters.
func (c *TimedLRU[K, V]) ResetStats() {
	c.stats.reset()
	c.store.ResetStats()
}

// Len returns the number of stored entries, including logically expired
// ones not yet displaced.
func (c *TimedLRU[K, V]) Len() int {
	return c.store.Len()
}

// Stats returns a snapshot of the store's counters. Evictions are counted
// by the underlying LRU store's capacity pressure.
func (c *TimedLRU[K, V]) Stats() Snapshot {
	snap := c.stats.Snapshot()
	snap.Evictions = c.store.Stats().Evictions
	return snap
}

// Capacity returns the maximum entry count.
func (c *TimedLRU[K, V]) Capacity() (int, bool) {
	return c.store.Capacity()
}

// Lifespan returns the shared TTL.
func (c *TimedLRU[K, V]) Lifespan() (time.Duration, bool) {
	return c.ttl, true
}

// SetLifespan replaces the TTL and returns the previous one. Existing
// stamps are reinterpreted against the new TTL on next access.
func (c *TimedLRU[K, V]) SetLifespan(ttl time.Duration) (time.Duration, bool) {
	old := c.ttl
	c.ttl = ttl
	return old, true
}

// Keys returns the unexpired keys in recency order, most recently used
// first.
func (c *TimedLRU[K, V]) Keys() []K {
	now := c.clock.Now()
	keys := make([]K, 0, c.store.Len())
	c.store.order.each(func(_ int, e *lruEntry[K, stamped[V]]) bool {
		if now.Sub(e.value.at) < c.ttl {
			keys = append(keys, e.key)
		}
		return true
	})
	return keys
}

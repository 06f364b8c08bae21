package hoard

import "time"

// Timed is a time-bounded store: entries are stamped on insertion and
// expired lazily against a single shared TTL. There is no background
// sweeper; the read that discovers an expired entry physically removes it.
type Timed[K comparable, V any] struct {
	entries map[K]stamped[V]
	ttl     time.Duration
	refresh bool
	initial int
	clock   Clock
	stats   Stats
}

type stamped[V any] struct {
	at    time.Time
	value V
}

// NewTimed creates a Timed store with the given lifespan. WithRefresh makes
// every hit re-stamp the entry, extending its lifetime.
func NewTimed[K comparable, V any](ttl time.Duration, opts ...Option) *Timed[K, V] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Timed[K, V]{
		entries: make(map[K]stamped[V], cfg.initialCapacity),
		ttl:     ttl,
		refresh: cfg.refresh,
		initial: cfg.initialCapacity,
		clock:   cfg.clock,
	}
}

func (c *Timed[K, V]) expired(e stamped[V], now time.Time) bool {
	return now.Sub(e.at) >= c.ttl
}

// Get retrieves a live value. An expired entry counts as a miss and is
// removed.
func (c *Timed[K, V]) Get(key K) (V, bool) {
	var zero V
	e, ok := c.entries[key]
	if !ok {
		c.stats.miss()
		return zero, false
	}
	now := c.clock.Now()
	if c.expired(e, now) {
		c.stats.miss()
		c.stats.evict()
		delete(c.entries, key)
		return zero, false
	}
	c.stats.hit()
	if c.refresh {
		e.at = now
		c.entries[key] = e
	}
	return e.value, true
}

// Update applies fn to the stored value in place, with Get accounting and
// expiry handling.
func (c *Timed[K, V]) Update(key K, fn func(*V)) bool {
	e, ok := c.entries[key]
	if !ok {
		c.stats.miss()
		return false
	}
	now := c.clock.Now()
	if c.expired(e, now) {
		c.stats.miss()
		c.stats.evict()
		delete(c.entries, key)
		return false
	}
	c.stats.hit()
	if c.refresh {
		e.at = now
	}
	fn(&e.value)
	c.entries[key] = e
	return true
}

// GetOrSet returns the existing valid value or computes and inserts one via
// fn. An expired entry is overwritten with a fresh stamp and counts as a
// miss.
func (c *Timed[K, V]) GetOrSet(key K, fn func() V) V {
	now := c.clock.Now()
	if e, ok := c.entries[key]; ok && !c.expired(e, now) {
		c.stats.hit()
		if c.refresh {
			e.at = now
			c.entries[key] = e
		}
		return e.value
	}
	c.stats.miss()
	v := fn()
	c.entries[key] = stamped[V]{at: now, value: v}
	return v
}

// GetOrLoad is GetOrSet with a fallible factory; on error nothing is
// inserted.
func (c *Timed[K, V]) GetOrLoad(key K, fn func() (V, error)) (V, error) {
	now := c.clock.Now()
	if e, ok := c.entries[key]; ok && !c.expired(e, now) {
		c.stats.hit()
		if c.refresh {
			e.at = now
			c.entries[key] = e
		}
		return e.value, nil
	}
	c.stats.miss()
	v, err := fn()
	if err != nil {
		var zero V
		return zero, err
	}
	c.entries[key] = stamped[V]{at: now, value: v}
	return v, nil
}

// Set stamps the value with the current time. The previous value is
// returned only if it had not already expired.
func (c *Timed[K, V]) Set(key K, value V) (V, bool) {
	now := c.clock.Now()
	prev, ok := c.entries[key]
	c.entries[key] = stamped[V]{at: now, value: value}
	if !ok || c.expired(prev, now) {
		var zero V
		return zero, false
	}
	return prev.value, true
}

// Remove deletes a key. The removed value is returned only if it had not
// already expired.
func (c *Timed[K, V]) Remove(key K) (V, bool) {
	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	delete(c.entries, key)
	if c.expired(e, c.clock.Now()) {
		return zero, false
	}
	return e.value, true
}

// Flush removes every expired entry.
func (c *Timed[K, V]) Flush() int {
	now := c.clock.Now()
	removed := 0
	for key, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, key)
			c.stats.evict()
			removed++
		}
	}
	return removed
}

// Clear removes all entries.
func (c *Timed[K, V]) Clear() {
	clear(c.entries)
}

// Reset clears the store and restores the initial capacity hint.
func (c *Timed[K, V]) Reset() {
	c.entries = make(map[K]stamped[V], c.initial)
}

// ResetStats zeroes the counters.
func (c *Timed[K, V]) ResetStats() {
	c.stats.reset()
}

// Len returns the number of stored entries, including any that have
// expired but not yet been touched by a read or Flush.
func (c *Timed[K, V]) Len() int {
	return len(c.entries)
}

// Stats returns a snapshot of the store's counters.
func (c *Timed[K, V]) Stats() Snapshot {
	return c.stats.Snapshot()
}

// Capacity reports that the store is unbounded.
func (c *Timed[K, V]) Capacity() (int, bool) {
	return 0, false
}

// Lifespan returns the shared TTL.
func (c *Timed[K, V]) Lifespan() (time.Duration, bool) {
	return c.ttl, true
}

// SetLifespan replaces the TTL and returns the previous one. Existing
// stamps are reinterpreted against the new TTL on next access; nothing is
// re-stamped.
func (c *Timed[K, V]) SetLifespan(ttl time.Duration) (time.Duration, bool) {
	old := c.ttl
	c.ttl = ttl
	return old, true
}

// Refresh reports whether hits re-stamp entries.
func (c *Timed[K, V]) Refresh() bool {
	return c.refresh
}

package hoard

import "time"

// Unbounded is a direct map wrapper with hit/miss accounting and no
// eviction. It is the baseline for the accounting semantics shared by the
// rest of the store family.
type Unbounded[K comparable, V any] struct {
	entries map[K]V
	initial int
	stats   Stats
}

// NewUnbounded creates an Unbounded store.
func NewUnbounded[K comparable, V any](opts ...Option) *Unbounded[K, V] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Unbounded[K, V]{
		entries: make(map[K]V, cfg.initialCapacity),
		initial: cfg.initialCapacity,
	}
}

// Get retrieves a value, counting a hit or a miss.
func (c *Unbounded[K, V]) Get(key K) (V, bool) {
	v, ok := c.entries[key]
	if ok {
		c.stats.hit()
	} else {
		c.stats.miss()
	}
	return v, ok
}

// Update applies fn to the stored value in place, with Get accounting.
func (c *Unbounded[K, V]) Update(key K, fn func(*V)) bool {
	v, ok := c.entries[key]
	if !ok {
		c.stats.miss()
		return false
	}
	c.stats.hit()
	fn(&v)
	c.entries[key] = v
	return true
}

// GetOrSet returns the existing value or computes and inserts one via fn.
func (c *Unbounded[K, V]) GetOrSet(key K, fn func() V) V {
	if v, ok := c.entries[key]; ok {
		c.stats.hit()
		return v
	}
	c.stats.miss()
	v := fn()
	c.entries[key] = v
	return v
}

// GetOrLoad is GetOrSet with a fallible factory; on error nothing is
// inserted.
func (c *Unbounded[K, V]) GetOrLoad(key K, fn func() (V, error)) (V, error) {
	if v, ok := c.entries[key]; ok {
		c.stats.hit()
		return v, nil
	}
	c.stats.miss()
	v, err := fn()
	if err != nil {
		var zero V
		return zero, err
	}
	c.entries[key] = v
	return v, nil
}

// Set inserts or replaces a value, returning the previous one if the key
// existed.
func (c *Unbounded[K, V]) Set(key K, value V) (V, bool) {
	prev, ok := c.entries[key]
	c.entries[key] = value
	return prev, ok
}

// Remove deletes a key, returning the removed value if present.
func (c *Unbounded[K, V]) Remove(key K) (V, bool) {
	v, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	return v, ok
}

// Clear removes all entries.
func (c *Unbounded[K, V]) Clear() {
	clear(c.entries)
}

// Reset clears the store and restores the initial capacity hint.
func (c *Unbounded[K, V]) Reset() {
	c.entries = make(map[K]V, c.initial)
}

// ResetStats zeroes the counters.
func (c *Unbounded[K, V]) ResetStats() {
	c.stats.reset()
}

// Len returns the number of stored entries.
func (c *Unbounded[K, V]) Len() int {
	return len(c.entries)
}

// Stats returns a snapshot of the store's counters.
func (c *Unbounded[K, V]) Stats() Snapshot {
	return c.stats.Snapshot()
}

// Capacity reports that the store is unbounded.
func (c *Unbounded[K, V]) Capacity() (int, bool) {
	return 0, false
}

// Lifespan reports that entries do not expire.
func (c *Unbounded[K, V]) Lifespan() (time.Duration, bool) {
	return 0, false
}

// SetLifespan is a no-op; the store has no TTL.
func (c *Unbounded[K, V]) SetLifespan(time.Duration) (time.Duration, bool) {
	return 0, false
}

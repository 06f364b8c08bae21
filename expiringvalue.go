package hoard

import "time"

// Expirable is implemented by values that carry their own expiry, such as
// tokens with an embedded deadline.
type Expirable interface {
	// Expired reports whether the value is no longer valid.
	Expired() bool
}

// ExpiringValue is a capacity-bounded store whose expiry is determined by
// the values themselves rather than a shared TTL. Reads treat an expired
// value as a miss and remove it.
type ExpiringValue[K comparable, V Expirable] struct {
	store *LRU[K, V]
	stats Stats
}

var _ Cache[string, neverExpires] = (*ExpiringValue[string, neverExpires])(nil)

type neverExpires struct{}

func (neverExpires) Expired() bool { return false }

// NewExpiringValue creates an ExpiringValue store holding at most capacity
// entries. Panics if capacity is zero or negative.
func NewExpiringValue[K comparable, V Expirable](capacity int, opts ...Option) *ExpiringValue[K, V] {
	return &ExpiringValue[K, V]{
		store: NewLRU[K, V](capacity, opts...),
	}
}

func notExpired[V Expirable](v *V) bool {
	return !(*v).Expired()
}

// Get retrieves a value that has not expired. An expired value counts as a
// miss and is removed.
func (c *ExpiringValue[K, V]) Get(key K) (V, bool) {
	v, present, ok := c.store.getIf(key, notExpired[V])
	if ok {
		c.stats.hit()
		return *v, true
	}
	c.stats.miss()
	if present {
		c.store.Remove(key)
		c.store.stats.evict()
	}
	var zero V
	return zero, false
}

// Update applies fn to the stored value in place, with Get accounting and
// expiry handling.
func (c *ExpiringValue[K, V]) Update(key K, fn func(*V)) bool {
	v, present, ok := c.store.getIf(key, notExpired[V])
	if ok {
		c.stats.hit()
		fn(v)
		return true
	}
	c.stats.miss()
	if present {
		c.store.Remove(key)
		c.store.stats.evict()
	}
	return false
}

// GetOrSet returns the existing valid value or computes and inserts one
// via fn; an expired value is overwritten and counts as a miss.
func (c *ExpiringValue[K, V]) GetOrSet(key K, fn func() V) V {
	v, present, wasValid := c.store.getOrSetIf(key, fn, notExpired[V])
	if present && wasValid {
		c.stats.hit()
	} else {
		c.stats.miss()
	}
	return *v
}

// GetOrLoad is GetOrSet with a fallible factory; on error nothing is
// inserted.
func (c *ExpiringValue[K, V]) GetOrLoad(key K, fn func() (V, error)) (V, error) {
	v, present, wasValid, err := c.store.getOrLoadIf(key, fn, notExpired[V])
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
	return *v, nil
}

// Set inserts or replaces a value, returning the previous one if the key
// existed, expired or not.
func (c *ExpiringValue[K, V]) Set(key K, value V) (V, bool) {
	return c.store.Set(key, value)
}

// Remove deletes a key, returning the removed value if present.
func (c *ExpiringValue[K, V]) Remove(key K) (V, bool) {
	return c.store.Remove(key)
}

// Flush removes every expired value, returning the number dropped.
func (c *ExpiringValue[K, V]) Flush() int {
	return c.store.removeWhere(func(v *V) bool {
		return (*v).Expired()
	})
}

// Clear removes all entries.
func (c *ExpiringValue[K, V]) Clear() {
	c.store.Clear()
}

// Reset is Clear: the store is always sized to its fixed capacity.
func (c *ExpiringValue[K, V]) Reset() {
	c.store.Reset()
}

// ResetStats zeroes the counters.
func (c *ExpiringValue[K, V]) ResetStats() {
	c.stats.reset()
	c.store.ResetStats()
}

// Len returns the number of stored entries, including any that have
// expired but not yet been swept.
func (c *ExpiringValue[K, V]) Len() int {
	return c.store.Len()
}

// Stats returns a snapshot of the store's counters. Evictions are counted
// by the underlying LRU store.
func (c *ExpiringValue[K, V]) Stats() Snapshot {
	snap := c.stats.Snapshot()
	snap.Evictions = c.store.Stats().Evictions
	return snap
}

// Capacity returns the maximum entry count.
func (c *ExpiringValue[K, V]) Capacity() (int, bool) {
	return c.store.Capacity()
}

// Lifespan reports absent: expiry lives in the values.
func (c *ExpiringValue[K, V]) Lifespan() (time.Duration, bool) {
	return 0, false
}

// SetLifespan is a no-op; expiry lives in the values.
func (c *ExpiringValue[K, V]) SetLifespan(time.Duration) (time.Duration, bool) {
	return 0, false
}

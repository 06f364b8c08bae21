package hoard

import "time"

// LRU is a capacity-bounded store that evicts the least recently used
// entry when full. Recency order lives in an index-based arena list, so a
// hit is a constant-time splice with no allocation.
//
// Reads refresh recency; Set of an existing key does not, unless the store
// was built with WithWriteRefresh. The asymmetry keeps write-heavy
// workloads from promoting entries that are merely being rewritten.
type LRU[K comparable, V any] struct {
	entries      map[K]int
	order        arena[lruEntry[K, V]]
	capacity     int
	writeRefresh bool
	stats        Stats
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewLRU creates an LRU store holding at most capacity entries.
// Panics if capacity is zero or negative: an always-empty cache is a usage
// error, not a valid state.
func NewLRU[K comparable, V any](capacity int, opts ...Option) *LRU[K, V] {
	if capacity <= 0 {
		panic("hoard: LRU capacity must be greater than zero")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &LRU[K, V]{
		entries:      make(map[K]int, capacity),
		order:        newArena[lruEntry[K, V]](capacity),
		capacity:     capacity,
		writeRefresh: cfg.writeRefresh,
	}
}

// Get retrieves a value and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	i, ok := c.entries[key]
	if !ok {
		c.stats.miss()
		var zero V
		return zero, false
	}
	c.stats.hit()
	c.order.moveToFront(i)
	return c.order.at(i).value, true
}

// Update applies fn to the stored value in place, with Get accounting and
// recency.
func (c *LRU[K, V]) Update(key K, fn func(*V)) bool {
	i, ok := c.entries[key]
	if !ok {
		c.stats.miss()
		return false
	}
	c.stats.hit()
	c.order.moveToFront(i)
	fn(&c.order.at(i).value)
	return true
}

// GetOrSet returns the existing value (marking it most recently used) or
// computes and inserts one via fn, evicting the LRU entry at capacity.
func (c *LRU[K, V]) GetOrSet(key K, fn func() V) V {
	v, present, _ := c.getOrSetIf(key, fn, nil)
	if present {
		c.stats.hit()
	} else {
		c.stats.miss()
	}
	return *v
}

// GetOrLoad is GetOrSet with a fallible factory; on error nothing is
// inserted and recency is untouched.
func (c *LRU[K, V]) GetOrLoad(key K, fn func() (V, error)) (V, error) {
	if i, ok := c.entries[key]; ok {
		c.stats.hit()
		c.order.moveToFront(i)
		return c.order.at(i).value, nil
	}
	c.stats.miss()
	v, err := fn()
	if err != nil {
		var zero V
		return zero, err
	}
	c.insert(key, v)
	return v, nil
}

// Set inserts or replaces a value, returning the previous one if the key
// existed. At capacity the least recently used entry is evicted first.
func (c *LRU[K, V]) Set(key K, value V) (V, bool) {
	if i, ok := c.entries[key]; ok {
		ent := c.order.at(i)
		prev := ent.value
		ent.value = value
		if c.writeRefresh {
			c.order.moveToFront(i)
		}
		return prev, true
	}
	c.insert(key, value)
	var zero V
	return zero, false
}

// insert adds a new key, evicting the back of the recency list at
// capacity. The map and the arena are updated together.
func (c *LRU[K, V]) insert(key K, value V) int {
	if len(c.entries) >= c.capacity {
		victim := c.order.remove(c.order.back())
		delete(c.entries, victim.key)
		c.stats.evict()
	}
	i := c.order.pushFront(lruEntry[K, V]{key: key, value: value})
	c.entries[key] = i
	return i
}

// Remove deletes a key, returning the removed value if present.
func (c *LRU[K, V]) Remove(key K) (V, bool) {
	i, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	ent := c.order.remove(i)
	delete(c.entries, key)
	return ent.value, true
}

// Clear removes all entries, keeping the allocated capacity.
func (c *LRU[K, V]) Clear() {
	clear(c.entries)
	c.order.clear()
}

// Reset is Clear: the store is always sized to its fixed capacity.
func (c *LRU[K, V]) Reset() {
	c.Clear()
}

// ResetStats zeroes the counters.
func (c *LRU[K, V]) ResetStats() {
	c.stats.reset()
}

// Len returns the number of stored entries.
func (c *LRU[K, V]) Len() int {
	return len(c.entries)
}

// Stats returns a snapshot of the store's counters.
func (c *LRU[K, V]) Stats() Snapshot {
	return c.stats.Snapshot()
}

// Capacity returns the maximum entry count.
func (c *LRU[K, V]) Capacity() (int, bool) {
	return c.capacity, true
}

// Lifespan reports that entries do not expire.
func (c *LRU[K, V]) Lifespan() (time.Duration, bool) {
	return 0, false
}

// SetLifespan is a no-op; the store has no TTL.
func (c *LRU[K, V]) SetLifespan(time.Duration) (time.Duration, bool) {
	return 0, false
}

// Keys returns the keys in recency order, most recently used first.
func (c *LRU[K, V]) Keys() []K {
	keys := make([]K, 0, len(c.entries))
	c.order.each(func(_ int, e *lruEntry[K, V]) bool {
		keys = append(keys, e.key)
		return true
	})
	return keys
}

// The helpers below do no hit/miss accounting; composed stores (TimedLRU,
// ExpiringValue) keep their own counters and filter through a validity
// predicate. A nil predicate accepts every stored value.

// getIf returns the value for key when the predicate holds, refreshing
// recency only then. Reports presence and validity separately so callers
// can distinguish a logical miss from an absent key.
func (c *LRU[K, V]) getIf(key K, valid func(*V) bool) (v *V, present, ok bool) {
	i, found := c.entries[key]
	if !found {
		return nil, false, false
	}
	val := &c.order.at(i).value
	if valid != nil && !valid(val) {
		return val, true, false
	}
	c.order.moveToFront(i)
	return val, true, true
}

// getOrSetIf returns the existing valid value or replaces/inserts via fn.
// An existing invalid value is overwritten in place with a fresh recency
// position, like a new insert.
func (c *LRU[K, V]) getOrSetIf(key K, fn func() V, valid func(*V) bool) (v *V, present, wasValid bool) {
	if i, found := c.entries[key]; found {
		val := &c.order.at(i).value
		if valid == nil || valid(val) {
			c.order.moveToFront(i)
			return val, true, true
		}
		*val = fn()
		c.order.moveToFront(i)
		return val, true, false
	}
	i := c.insert(key, fn())
	return &c.order.at(i).value, false, false
}

// getOrLoadIf is getOrSetIf with a fallible factory: on error the store is
// left untouched.
func (c *LRU[K, V]) getOrLoadIf(key K, fn func() (V, error), valid func(*V) bool) (v *V, present, wasValid bool, err error) {
	if i, found := c.entries[key]; found {
		val := &c.order.at(i).value
		if valid == nil || valid(val) {
			c.order.moveToFront(i)
			return val, true, true, nil
		}
		next, err := fn()
		if err != nil {
			return nil, true, false, err
		}
		*val = next
		c.order.moveToFront(i)
		return val, true, false, nil
	}
	next, err := fn()
	if err != nil {
		return nil, false, false, err
	}
	i := c.insert(key, next)
	return &c.order.at(i).value, false, false, nil
}

// removeWhere deletes every entry whose value fails the predicate,
// returning the number removed. Used by value-expiry sweeps.
func (c *LRU[K, V]) removeWhere(stale func(*V) bool) int {
	var victims []K
	c.order.each(func(_ int, e *lruEntry[K, V]) bool {
		if stale(&e.value) {
			victims = append(victims, e.key)
		}
		return true
	})
	for _, key := range victims {
		i := c.entries[key]
		c.order.remove(i)
		delete(c.entries, key)
		c.stats.evict()
	}
	return len(victims)
}

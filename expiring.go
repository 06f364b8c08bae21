package hoard

import (
	"sort"
	"time"
)

// Expiring is a size- and time-bounded store tuned for read-heavy
// concurrent access. Structural rewrites are deferred: Remove and eviction
// leave tombstone markers in an expiry-ordered stamp queue, and a single
// O(n) compaction pass reclaims them once their count crosses a threshold.
// Everything else is O(1) amortized, plus an O(log n) boundary search on
// eviction.
//
// The read path (Get) mutates nothing but atomic counters, so reads can be
// served behind the shared side of an RWMutex while writers hold the
// exclusive side. The price is that Get never removes what it finds
// expired; logically dead entries are reclaimed by Evict, RetainLatest or
// size pressure, and Len may overcount until then.
//
// Expiring sits outside the Cache interface: Insert can fail with
// ErrTimeBounds when adding the TTL to the current time falls outside the
// representable time range.
type Expiring[K comparable, V any] struct {
	entries map[K]expEntry[V]

	// stamps is ordered ascending by expiry: the TTL is uniform and
	// stamps are only ever appended, tombstoned in place, or dropped by
	// compaction.
	stamps []stampedKey[K]

	ttl           time.Duration
	sizeLimit     int // 0 means unbounded
	tombstones    int
	maxTombstones int
	clock         Clock
	stats         Stats
}

type stampedKey[K comparable] struct {
	expiry    time.Time
	key       K
	tombstone bool
}

type expEntry[V any] struct {
	stampIndex int
	expiry     time.Time
	value      V
}

// NewExpiring creates an Expiring store with the given lifespan.
// WithSizeLimit bounds the live entry count; WithMaxTombstones tunes the
// compaction threshold (default DefaultMaxTombstones).
func NewExpiring[K comparable, V any](ttl time.Duration, opts ...Option) *Expiring[K, V] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Expiring[K, V]{
		entries:       make(map[K]expEntry[V], cfg.initialCapacity),
		stamps:        make([]stampedKey[K], 0, cfg.initialCapacity),
		ttl:           ttl,
		sizeLimit:     cfg.sizeLimit,
		maxTombstones: cfg.maxTombstones,
		clock:         cfg.clock,
	}
}

// Get retrieves an unexpired value. The store is not mutated: an expired
// entry stays until the next Evict, RetainLatest or size pressure.
func (c *Expiring[K, V]) Get(key K) (V, bool) {
	e, ok := c.entries[key]
	if !ok || !c.clock.Now().Before(e.expiry) {
		c.stats.miss()
		var zero V
		return zero, false
	}
	c.stats.hit()
	return e.value, true
}

// Insert adds or replaces a value stamped with now+TTL. The previous value
// is returned only if it had not already expired. Returns ErrTimeBounds if
// the expiry computation leaves the representable time range.
func (c *Expiring[K, V]) Insert(key K, value V) (V, bool, error) {
	return c.insert(key, value, false)
}

// InsertEvict is Insert, optionally evicting expired entries first. When a
// size limit is set the eviction happens inside the room-making pass
// regardless.
func (c *Expiring[K, V]) InsertEvict(key K, value V, evict bool) (V, bool, error) {
	return c.insert(key, value, evict)
}

func (c *Expiring[K, V]) insert(key K, value V, evict bool) (V, bool, error) {
	var zero V

	if c.sizeLimit > 0 {
		if len(c.entries) > c.sizeLimit-1 {
			c.RetainLatest(c.sizeLimit-1, evict)
		}
	} else if evict {
		c.Evict()
	}

	now := c.clock.Now()
	expiry := now.Add(c.ttl)
	if c.ttl > 0 && expiry.Before(now) {
		return zero, false, ErrTimeBounds
	}

	// The stamp queue and the map change together: append the fresh
	// stamp, overwrite the entry, then tombstone the displaced stamp.
	c.stamps = append(c.stamps, stampedKey[K]{expiry: expiry, key: key})
	old, existed := c.entries[key]
	c.entries[key] = expEntry[V]{
		stampIndex: len(c.stamps) - 1,
		expiry:     expiry,
		value:      value,
	}
	if existed {
		c.bury(old.stampIndex)
	}
	c.compactIfNeeded()

	if !existed || !now.Before(old.expiry) {
		return zero, false, nil
	}
	return old.value, true, nil
}

// Remove deletes a key, tombstoning its stamp. The returned value is not
// checked for expiry; call Evict first when that matters.
func (c *Expiring[K, V]) Remove(key K) (V, bool) {
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	delete(c.entries, key)
	c.bury(e.stampIndex)
	c.compactIfNeeded()
	return e.value, true
}

// Evict removes every expired entry, returning the number dropped from the
// map (already-tombstoned stamps are skipped, not counted). Calling it
// again immediately returns 0.
func (c *Expiring[K, V]) Evict() int {
	removed := c.evictBefore(c.expiredBoundary(c.clock.Now()))
	c.compactIfNeeded()
	return removed
}

// RetainLatest keeps only the newest count live entries, dropping the next
// entries to expire; with evict it also drops everything already expired.
// Because the walk is bounded by the stamp queue it can drop more than
// live-len minus count entries, but never leaves more than count live.
// Returns the number of entries removed from the map.
func (c *Expiring[K, V]) RetainLatest(count int, evict bool) int {
	boundary := max(len(c.stamps)-count, 0)
	if evict {
		boundary = max(boundary, c.expiredBoundary(c.clock.Now()))
	}
	removed := c.evictBefore(boundary)
	c.compactIfNeeded()
	return removed
}

// expiredBoundary returns the index of the first stamp expiring at or
// after now, i.e. the length of the expired prefix. The queue is sorted
// ascending by expiry, tombstones included.
func (c *Expiring[K, V]) expiredBoundary(now time.Time) int {
	return sort.Search(len(c.stamps), func(i int) bool {
		return !c.stamps[i].expiry.Before(now)
	})
}

// evictBefore tombstones every stamp below boundary, removing the live
// ones from the map. Idempotent against stamps already tombstoned.
func (c *Expiring[K, V]) evictBefore(boundary int) int {
	removed := 0
	for i := 0; i < boundary; i++ {
		s := &c.stamps[i]
		if s.tombstone {
			continue
		}
		s.tombstone = true
		c.tombstones++
		delete(c.entries, s.key)
		c.stats.evict()
		removed++
	}
	return removed
}

// bury tombstones a single stamp by index.
func (c *Expiring[K, V]) bury(i int) {
	if !c.stamps[i].tombstone {
		c.stamps[i].tombstone = true
		c.tombstones++
	}
}

// compactIfNeeded rewrites the stamp queue once the tombstone count
// crosses the threshold: one pass drops every tombstoned slot and repairs
// the surviving entries' back-references. This is the only O(n) operation
// in normal use, amortized over the preceding O(1) soft-deletes.
func (c *Expiring[K, V]) compactIfNeeded() {
	if c.tombstones <= c.maxTombstones {
		return
	}
	w := 0
	for i := range c.stamps {
		if c.stamps[i].tombstone {
			continue
		}
		c.stamps[w] = c.stamps[i]
		e := c.entries[c.stamps[w].key]
		e.stampIndex = w
		c.entries[c.stamps[w].key] = e
		w++
	}
	clear(c.stamps[w:])
	c.stamps = c.stamps[:w]
	c.tombstones = 0
}

// Clear removes all entries and stamps, keeping allocated capacity.
func (c *Expiring[K, V]) Clear() {
	clear(c.entries)
	clear(c.stamps)
	c.stamps = c.stamps[:0]
	c.tombstones = 0
}

// ResetStats zeroes the counters.
func (c *Expiring[K, V]) ResetStats() {
	c.stats.reset()
}

// Len returns the live entry count. Logically expired entries are included
// until an Evict or RetainLatest removes them; run one first for an exact
// count.
func (c *Expiring[K, V]) Len() int {
	return len(c.entries)
}

// Stats returns a snapshot of the store's counters.
func (c *Expiring[K, V]) Stats() Snapshot {
	return c.stats.Snapshot()
}

// Lifespan returns the shared TTL.
func (c *Expiring[K, V]) Lifespan() (time.Duration, bool) {
	return c.ttl, true
}

// SetLifespan replaces the TTL and returns the previous one. It applies to
// subsequent inserts only; stamps already queued keep their expiry, which
// preserves the queue's ordering invariant.
func (c *Expiring[K, V]) SetLifespan(ttl time.Duration) (time.Duration, bool) {
	old := c.ttl
	c.ttl = ttl
	return old, true
}

// SizeLimit returns the live-entry bound, if one is set.
func (c *Expiring[K, V]) SizeLimit() (int, bool) {
	return c.sizeLimit, c.sizeLimit > 0
}

// SetSizeLimit replaces the live-entry bound, returning the previous one.
// The new bound is enforced by the next insert.
func (c *Expiring[K, V]) SetSizeLimit(n int) (int, bool) {
	old := c.sizeLimit
	had := old > 0
	if n > 0 {
		c.sizeLimit = n
	}
	return old, had
}

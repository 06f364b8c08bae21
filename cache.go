package hoard

import (
	"context"
	"time"
)

// Cache is the capability contract shared by the in-memory stores.
//
// Operations on in-memory stores never fail: an absent or expired key is
// reported as a false ok, not an error. The Expiring store is the one member
// of the family outside this interface, because its mutating operations can
// return a time-bounds error.
type Cache[K comparable, V any] interface {
	// Get returns a live, non-expired value. Counts a hit on presence,
	// a miss otherwise.
	Get(key K) (V, bool)

	// Update applies fn to the stored value in place. Accounting and
	// recency behavior are identical to Get. Reports whether a live value
	// was found.
	Update(key K, fn func(*V)) bool

	// GetOrSet returns the existing valid value, or computes and inserts
	// one via fn. Counts a hit only when an existing valid entry was
	// reused; fn runs at most once per call.
	GetOrSet(key K, fn func() V) V

	// GetOrLoad is GetOrSet with a fallible factory. On error nothing is
	// inserted.
	GetOrLoad(key K, fn func() (V, error)) (V, error)

	// Set inserts or replaces a value. Returns the previous value and
	// whether the key already existed. Does not touch hit/miss counters.
	Set(key K, value V) (V, bool)

	// Remove deletes a key, returning the removed value if present.
	Remove(key K) (V, bool)

	// Clear removes all entries.
	Clear()

	// Reset clears the store and restores its initial capacity hint.
	Reset()

	// ResetStats zeroes the hit/miss/eviction counters.
	ResetStats()

	// Len returns the number of stored entries. Stores with lazy expiry
	// may include logically expired entries in the count.
	Len() int

	// Stats returns a snapshot of the store's counters.
	Stats() Snapshot

	// Capacity returns the maximum entry count, if the store has one.
	Capacity() (int, bool)

	// Lifespan returns the store's TTL, if it has one.
	Lifespan() (time.Duration, bool)

	// SetLifespan replaces the store's TTL and returns the previous one.
	// Stores without a TTL report false and ignore the call. Existing
	// entries are reinterpreted against the new TTL on next access.
	SetLifespan(ttl time.Duration) (time.Duration, bool)
}

// IOCache is the capability contract for backend-delegating stores: the
// external engine owns durability, atomicity and the wire format, and every
// operation can surface a backend error. Set returns the prior value only if
// it was not already logically expired under the store's TTL; Remove is
// unconditional.
type IOCache[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool, error)
	Set(ctx context.Context, key K, value V) (V, bool, error)
	Remove(ctx context.Context, key K) (V, bool, error)
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
	Lifespan() (time.Duration, bool)
	SetLifespan(ttl time.Duration) (time.Duration, bool)
}

// Compile-time contract assertions.
var (
	_ Cache[string, int] = (*Unbounded[string, int])(nil)
	_ Cache[string, int] = (*LRU[string, int])(nil)
	_ Cache[string, int] = (*Timed[string, int])(nil)
	_ Cache[string, int] = (*TimedLRU[string, int])(nil)
)

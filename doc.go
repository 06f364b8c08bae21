// Package hoard provides a family of in-process key/value cache stores
// behind one capability contract.
//
// # Overview
//
// Every store in the family is type-safe and implements the same set of
// operations (get, set, remove, clear, stats); what differs is the admission
// and eviction policy. Pick the store that matches the bound you care about:
//
//	hoard.NewUnbounded[string, int]()            // no eviction
//	hoard.NewLRU[string, int](1000)              // capacity-bounded, LRU eviction
//	hoard.NewTimed[string, int](time.Minute)     // time-bounded, lazy expiry
//	hoard.NewTimedLRU[string, int](1000, time.Minute)
//	hoard.NewExpiring[string, int](time.Minute)  // read-heavy, tombstone compaction
//
// # Basic Usage
//
// All stores share the Cache contract:
//
//	cache := hoard.NewLRU[string, int](100)
//
//	cache.Set("answer", 42)
//
//	if v, ok := cache.Get("answer"); ok {
//		fmt.Println(v)
//	}
//
//	cache.Remove("answer")
//
// # Locking
//
// Stores contain no internal synchronization. A store has one logical owner
// per call: wrap it in a mutex (or RWMutex) when sharing it across
// goroutines. The Expiring store is built so that its read path mutates
// nothing but atomic counters, which makes reads safe behind the shared side
// of an RWMutex while writers take the exclusive side:
//
//	var mu sync.RWMutex
//	cache := hoard.NewExpiring[string, int](time.Minute)
//
//	// reader
//	mu.RLock()
//	v, ok := cache.Get("key")
//	mu.RUnlock()
//
//	// writer
//	mu.Lock()
//	_, _, err := cache.Insert("key", 42)
//	mu.Unlock()
//
// # Hit and Miss Accounting
//
// Each store owns its counters. Get counts a hit for a live, non-expired
// value and a miss otherwise; GetOrSet counts a hit only when an existing
// valid entry was reused; Set and Remove never touch the counters.
//
//	snap := cache.Stats()
//	fmt.Println(snap.Hits, snap.Misses, snap.HitRate())
//
// # Time-Bounded Stores
//
// Timed stores stamp entries on insertion and expire them lazily on read;
// there is no background sweeper. The Timed store physically removes an
// expired entry on the read that discovers it, and offers Flush to sweep
// the rest. The TimedLRU store only expires logically: physical removal
// happens through capacity pressure or Clear.
//
// # Testing
//
// Inject a Clock to control time instead of sleeping:
//
//	type fakeClock struct{ now time.Time }
//	func (c *fakeClock) Now() time.Time { return c.now }
//
//	clock := &fakeClock{now: time.Now()}
//	cache := hoard.NewTimed[string, int](time.Minute, hoard.WithClock(clock))
//
//	cache.Set("key", 42)
//	clock.now = clock.now.Add(2 * time.Minute)
//	_, ok := cache.Get("key") // ok == false
//
// # Backend Stores
//
// The subpackages diskcache, rediscache and etcdcache implement the IOCache
// contract against an external engine, which owns durability and atomicity.
// Their operations take a context and return errors wrapping the engine's
// own; see each package for details.
package hoard

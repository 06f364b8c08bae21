package hoard

import "sync/atomic"

// Stats holds per-store counters using atomics for lock-free updates.
// Atomic counters keep the Expiring store's read path free of plain-field
// mutation, so reads stay safe behind a shared lock.
type Stats struct {
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// Hits returns the number of cache hits.
func (s *Stats) Hits() uint64 {
	return s.hits.Load()
}

// Misses returns the number of cache misses.
func (s *Stats) Misses() uint64 {
	return s.misses.Load()
}

// Evictions returns the number of entries removed by capacity or
// expiry pressure.
func (s *Stats) Evictions() uint64 {
	return s.evictions.Load()
}

func (s *Stats) hit() {
	s.hits.Add(1)
}

func (s *Stats) miss() {
	s.misses.Add(1)
}

func (s *Stats) evict() {
	s.evictions.Add(1)
}

func (s *Stats) reset() {
	s.hits.Store(0)
	s.misses.Store(0)
	s.evictions.Store(0)
}

// Snapshot is a point-in-time copy of a store's statistics.
type Snapshot struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns the cache hit rate as a value between 0 and 1.
// Returns 0 if there have been no accesses.
func (s Snapshot) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Snapshot returns a point-in-time copy of the stats.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evictions.Load(),
	}
}

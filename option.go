package hoard

// DefaultMaxTombstones is the tombstone count above which the Expiring
// store compacts its stamp queue.
const DefaultMaxTombstones = 50

type config struct {
	clock           Clock
	initialCapacity int
	refresh         bool
	writeRefresh    bool
	sizeLimit       int
	maxTombstones   int
}

func defaultConfig() config {
	return config{
		clock:         realClock{},
		maxTombstones: DefaultMaxTombstones,
	}
}

// Option configures a store at construction. Options a store does not use
// are ignored.
type Option func(*config)

// WithClock sets a custom clock for time operations.
// Useful for testing TTL behavior.
func WithClock(clk Clock) Option {
	return func(c *config) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithInitialCapacity pre-sizes the store's backing map. Reset restores
// this hint.
func WithInitialCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.initialCapacity = n
		}
	}
}

// WithRefresh makes a Timed store re-stamp an entry's insertion time on
// every hit, extending its lifetime.
func WithRefresh() Option {
	return func(c *config) {
		c.refresh = true
	}
}

// WithWriteRefresh makes an LRU store promote an entry's recency when its
// value is overwritten by Set. By default only reads refresh recency, so
// write-heavy workloads do not promote entries that are merely rewritten.
func WithWriteRefresh() Option {
	return func(c *config) {
		c.writeRefresh = true
	}
}

// WithSizeLimit bounds the Expiring store's live entry count. When the
// limit would be exceeded, the entries closest to expiry are dropped to
// make room.
func WithSizeLimit(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.sizeLimit = n
		}
	}
}

// WithMaxTombstones sets the tombstone count above which the Expiring
// store compacts its stamp queue.
func WithMaxTombstones(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxTombstones = n
		}
	}
}

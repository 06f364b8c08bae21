// Package diskcache implements the hoard.IOCache contract on top of an
// embedded bbolt database. The engine owns durability and atomicity;
// entries are stored as JSON records stamped with their creation time, and
// expiry is enforced lazily the way the in-memory timed stores do it.
package diskcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/bjaus/hoard"
)

const recordVersion = 1

// Cache is a disk-backed key/value cache. Entry operations are safe for
// concurrent use; bbolt serializes writers internally. SetLifespan is a
// configuration call and needs external coordination with in-flight
// operations.
type Cache[K comparable, V any] struct {
	db      *bolt.DB
	bucket  []byte
	ttl     time.Duration
	refresh bool
	keyFn   func(K) string
	clock   hoard.Clock
	log     *zap.Logger
	group   singleflight.Group
}

type record[V any] struct {
	Value     V         `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	Version   int       `json:"version"`
}

type config[K comparable] struct {
	ttl     time.Duration
	refresh bool
	bucket  string
	keyFn   func(K) string
	clock   hoard.Clock
	log     *zap.Logger
}

// Option configures a Cache.
type Option[K comparable] func(*config[K])

// WithTTL sets the lifespan after which stored entries are treated as
// expired. Zero means entries never expire.
func WithTTL[K comparable](ttl time.Duration) Option[K] {
	return func(c *config[K]) {
		c.ttl = ttl
	}
}

// WithRefresh makes a successful Get re-stamp the entry's creation time,
// extending its effective expiry.
func WithRefresh[K comparable]() Option[K] {
	return func(c *config[K]) {
		c.refresh = true
	}
}

// WithBucket sets the bolt bucket name. Defaults to "hoard".
func WithBucket[K comparable](name string) Option[K] {
	return func(c *config[K]) {
		if name != "" {
			c.bucket = name
		}
	}
}

// WithKeyFunc sets how keys are rendered to bytes. Defaults to fmt.Sprint.
func WithKeyFunc[K comparable](fn func(K) string) Option[K] {
	return func(c *config[K]) {
		if fn != nil {
			c.keyFn = fn
		}
	}
}

// WithClock sets a custom clock. Useful for testing TTL behavior.
func WithClock[K comparable](clk hoard.Clock) Option[K] {
	return func(c *config[K]) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithLogger sets the logger used for sweeps and clears.
func WithLogger[K comparable](log *zap.Logger) Option[K] {
	return func(c *config[K]) {
		if log != nil {
			c.log = log
		}
	}
}

// New opens (creating if needed) the database at path.
func New[K comparable, V any](path string, opts ...Option[K]) (*Cache[K, V], error) {
	cfg := config[K]{
		bucket: "hoard",
		keyFn:  func(k K) string { return fmt.Sprint(k) },
		clock:  defaultClock{},
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, &hoard.BackendError{Op: "open", Err: err}
	}
	bucket := []byte(cfg.bucket)
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, &hoard.BackendError{Op: "open", Err: err}
	}

	return &Cache[K, V]{
		db:      db,
		bucket:  bucket,
		ttl:     cfg.ttl,
		refresh: cfg.refresh,
		keyFn:   cfg.keyFn,
		clock:   cfg.clock,
		log:     cfg.log,
	}, nil
}

type defaultClock struct{}

func (defaultClock) Now() time.Time { return time.Now() }

func (c *Cache[K, V]) expired(rec record[V], now time.Time) bool {
	return c.ttl > 0 && now.Sub(rec.CreatedAt) >= c.ttl
}

// decode returns the record stored in raw, or false for records that are
// unreadable or from a different layout version.
func decode[V any](raw []byte) (record[V], bool) {
	var rec record[V]
	if err := json.Unmarshal(raw, &rec); err != nil || rec.Version != recordVersion {
		return rec, false
	}
	return rec, true
}

// Get retrieves a live value. An expired or unreadable record is deleted
// and reported as a miss. With WithRefresh a hit re-stamps the record.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var (
		zero  V
		value V
		found bool
	)
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(c.bucket)
		k := []byte(c.keyFn(key))
		raw := b.Get(k)
		if raw == nil {
			return nil
		}
		rec, ok := decode[V](raw)
		if !ok {
			return b.Delete(k)
		}
		now := c.clock.Now()
		if c.expired(rec, now) {
			return b.Delete(k)
		}
		if c.refresh && c.ttl > 0 {
			rec.CreatedAt = now
			buf, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := b.Put(k, buf); err != nil {
				return err
			}
		}
		value = rec.Value
		found = true
		return nil
	})
	if err != nil {
		return zero, false, &hoard.BackendError{Op: "get", Err: err}
	}
	return value, found, nil
}

// Set stores the value stamped with the current time. The previous value
// is returned only if it had not already expired.
func (c *Cache[K, V]) Set(ctx context.Context, key K, value V) (V, bool, error) {
	var (
		zero V
		prev V
		had  bool
	)
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	now := c.clock.Now()
	buf, err := json.Marshal(record[V]{Value: value, CreatedAt: now, Version: recordVersion})
	if err != nil {
		return zero, false, &hoard.BackendError{Op: "set", Err: err}
	}
	err = c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(c.bucket)
		k := []byte(c.keyFn(key))
		if raw := b.Get(k); raw != nil {
			if rec, ok := decode[V](raw); ok && !c.expired(rec, now) {
				prev = rec.Value
				had = true
			}
		}
		return b.Put(k, buf)
	})
	if err != nil {
		return zero, false, &hoard.BackendError{Op: "set", Err: err}
	}
	return prev, had, nil
}

// Remove deletes a key unconditionally. The removed value is returned only
// if it had not already expired.
func (c *Cache[K, V]) Remove(ctx context.Context, key K) (V, bool, error) {
	var (
		zero V
		prev V
		had  bool
	)
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(c.bucket)
		k := []byte(c.keyFn(key))
		if raw := b.Get(k); raw != nil {
			if rec, ok := decode[V](raw); ok && !c.expired(rec, c.clock.Now()) {
				prev = rec.Value
				had = true
			}
		}
		return b.Delete(k)
	})
	if err != nil {
		return zero, false, &hoard.BackendError{Op: "remove", Err: err}
	}
	return prev, had, nil
}

// GetOrSet returns the existing live value, or loads and stores one.
// Concurrent calls for the same key share a single load.
func (c *Cache[K, V]) GetOrSet(ctx context.Context, key K, load func() (V, error)) (V, error) {
	var zero V
	v, err, _ := c.group.Do(c.keyFn(key), func() (any, error) {
		if v, ok, err := c.Get(ctx, key); err != nil {
			return nil, err
		} else if ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		if _, _, err := c.Set(ctx, key, v); err != nil {
			return nil, err
		}
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(V), nil
}

// Clear drops every entry in the bucket.
func (c *Cache[K, V]) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(c.bucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(c.bucket)
		return err
	})
	if err != nil {
		return &hoard.BackendError{Op: "clear", Err: err}
	}
	c.log.Debug("cache cleared", zap.ByteString("bucket", c.bucket))
	return nil
}

// Len returns the number of stored records, including any expired ones
// not yet swept.
func (c *Cache[K, V]) Len(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int
	err := c.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(c.bucket).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, &hoard.BackendError{Op: "len", Err: err}
	}
	return n, nil
}

// RemoveExpired sweeps the bucket, deleting every expired record, and
// returns the number removed.
func (c *Cache[K, V]) RemoveExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	now := c.clock.Now()
	removed := 0
	err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(c.bucket)
		cur := b.Cursor()
		for k, raw := cur.First(); k != nil; k, raw = cur.Next() {
			rec, ok := decode[V](raw)
			if ok && !c.expired(rec, now) {
				continue
			}
			if err := cur.Delete(); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, &hoard.BackendError{Op: "remove_expired", Err: err}
	}
	c.log.Debug("expired records swept",
		zap.ByteString("bucket", c.bucket),
		zap.Int("removed", removed),
	)
	return removed, nil
}

// Lifespan returns the store's TTL, if one is set.
func (c *Cache[K, V]) Lifespan() (time.Duration, bool) {
	return c.ttl, c.ttl > 0
}

// SetLifespan replaces the TTL and returns the previous one. Stored stamps
// are reinterpreted against the new TTL on next access.
func (c *Cache[K, V]) SetLifespan(ttl time.Duration) (time.Duration, bool) {
	old := c.ttl
	had := old > 0
	c.ttl = ttl
	return old, had
}

// Close releases the underlying database.
func (c *Cache[K, V]) Close() error {
	return c.db.Close()
}

var _ hoard.IOCache[string, int] = (*Cache[string, int])(nil)

// Package rediscache implements the hoard.IOCache contract on a Redis
// server. Values are stored as JSON under a namespace prefix and expiry is
// delegated to Redis key TTLs, so entries vanish server-side rather than
// being filtered on read.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/bjaus/hoard"
)

// Cache is a Redis-backed key/value cache. Entry operations are safe for
// concurrent use. SetLifespan is a configuration call and needs external
// coordination with in-flight operations.
type Cache[K comparable, V any] struct {
	rdb     redis.UniversalClient
	prefix  string
	ttl     time.Duration
	refresh bool
	keyFn   func(K) string
	group   singleflight.Group
}

type config[K comparable] struct {
	ttl     time.Duration
	refresh bool
	keyFn   func(K) string
}

// Option configures a Cache.
type Option[K comparable] func(*config[K])

// WithTTL sets the per-entry Redis TTL. Zero means entries persist until
// removed.
func WithTTL[K comparable](ttl time.Duration) Option[K] {
	return func(c *config[K]) {
		c.ttl = ttl
	}
}

// WithRefresh makes a successful Get push the entry's TTL back out to the
// full lifespan.
func WithRefresh[K comparable]() Option[K] {
	return func(c *config[K]) {
		c.refresh = true
	}
}

// WithKeyFunc sets how keys are rendered to strings. Defaults to fmt.Sprint.
func WithKeyFunc[K comparable](fn func(K) string) Option[K] {
	return func(c *config[K]) {
		if fn != nil {
			c.keyFn = fn
		}
	}
}

// New wraps an existing Redis client. Every key is stored under
// "<namespace>:" so multiple caches can share one server.
func New[K comparable, V any](client redis.UniversalClient, namespace string, opts ...Option[K]) *Cache[K, V] {
	cfg := config[K]{
		keyFn: func(k K) string { return fmt.Sprint(k) },
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Cache[K, V]{
		rdb:     client,
		prefix:  namespace + ":",
		ttl:     cfg.ttl,
		refresh: cfg.refresh,
		keyFn:   cfg.keyFn,
	}
}

func (c *Cache[K, V]) redisKey(key K) string {
	return c.prefix + c.keyFn(key)
}

// Get retrieves a value. Keys dropped by the server TTL read as misses.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var zero V
	k := c.redisKey(key)
	raw, err := c.rdb.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, &hoard.BackendError{Op: "get", Err: err}
	}
	var value V
	if err := json.Unmarshal(raw, &value); err != nil {
		return zero, false, &hoard.BackendError{Op: "get", Err: err}
	}
	if c.refresh && c.ttl > 0 {
		if err := c.rdb.Expire(ctx, k, c.ttl).Err(); err != nil {
			return zero, false, &hoard.BackendError{Op: "get", Err: err}
		}
	}
	return value, true, nil
}

// Set stores the value with the store's TTL and returns the previous live
// value, if any. Expired predecessors never appear because the server has
// already dropped them.
func (c *Cache[K, V]) Set(ctx context.Context, key K, value V) (V, bool, error) {
	var zero V
	buf, err := json.Marshal(value)
	if err != nil {
		return zero, false, &hoard.BackendError{Op: "set", Err: err}
	}
	args := redis.SetArgs{Get: true}
	if c.ttl > 0 {
		args.TTL = c.ttl
	}
	raw, err := c.rdb.SetArgs(ctx, c.redisKey(key), buf, args).Result()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, &hoard.BackendError{Op: "set", Err: err}
	}
	var prev V
	if err := json.Unmarshal([]byte(raw), &prev); err != nil {
		return zero, false, &hoard.BackendError{Op: "set", Err: err}
	}
	return prev, true, nil
}

// Remove deletes a key and returns the value it held, if any.
func (c *Cache[K, V]) Remove(ctx context.Context, key K) (V, bool, error) {
	var zero V
	raw, err := c.rdb.GetDel(ctx, c.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, &hoard.BackendError{Op: "remove", Err: err}
	}
	var prev V
	if err := json.Unmarshal(raw, &prev); err != nil {
		return zero, false, &hoard.BackendError{Op: "remove", Err: err}
	}
	return prev, true, nil
}

// GetOrSet returns the existing value, or loads and stores one. Concurrent
// calls for the same key share a single load.
func (c *Cache[K, V]) GetOrSet(ctx context.Context, key K, load func() (V, error)) (V, error) {
	var zero V
	v, err, _ := c.group.Do(c.redisKey(key), func() (any, error) {
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

// Clear deletes every key in the cache's namespace.
func (c *Cache[K, V]) Clear(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", 128).Iterator()
	batch := make([]string, 0, 128)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return &hoard.BackendError{Op: "clear", Err: err}
			}
		}
	}
	if err := iter.Err(); err != nil {
		return &hoard.BackendError{Op: "clear", Err: err}
	}
	if err := flush(); err != nil {
		return &hoard.BackendError{Op: "clear", Err: err}
	}
	return nil
}

// Len counts the keys currently in the cache's namespace.
func (c *Cache[K, V]) Len(ctx context.Context) (int, error) {
	n := 0
	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", 128).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, &hoard.BackendError{Op: "len", Err: err}
	}
	return n, nil
}

// Lifespan returns the store's TTL, if one is set.
func (c *Cache[K, V]) Lifespan() (time.Duration, bool) {
	return c.ttl, c.ttl > 0
}

// SetLifespan replaces the TTL applied to subsequent writes and returns the
// previous one. TTLs already attached to stored keys are unchanged.
func (c *Cache[K, V]) SetLifespan(ttl time.Duration) (time.Duration, bool) {
	old := c.ttl
	had := old > 0
	c.ttl = ttl
	return old, had
}

var _ hoard.IOCache[string, int] = (*Cache[string, int])(nil)

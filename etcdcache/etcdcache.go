// Package etcdcache implements the hoard.IOCache contract on an etcd
// cluster. Values are stored as JSON under a key prefix; expiry is
// delegated to etcd leases, so expired entries are removed server-side.
package etcdcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/bjaus/hoard"
)

// Cache is an etcd-backed key/value cache. Entry operations are safe for
// concurrent use. SetLifespan is a configuration call and needs external
// coordination with in-flight operations.
type Cache[K comparable, V any] struct {
	cli     *clientv3.Client
	prefix  string
	ttl     time.Duration
	refresh bool
	keyFn   func(K) string
	log     *zap.Logger
	group   singleflight.Group
}

type config[K comparable] struct {
	ttl     time.Duration
	refresh bool
	keyFn   func(K) string
	log     *zap.Logger
}

// Option configures a Cache.
type Option[K comparable] func(*config[K])

// WithTTL sets the lease TTL attached to stored entries. etcd leases have
// whole-second resolution, so sub-second TTLs round up to one second. Zero
// means entries persist until removed.
func WithTTL[K comparable](ttl time.Duration) Option[K] {
	return func(c *config[K]) {
		c.ttl = ttl
	}
}

// WithRefresh makes a successful Get renew the entry's lease, extending
// its expiry by the full TTL.
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

// WithLogger sets the logger used for clears.
func WithLogger[K comparable](log *zap.Logger) Option[K] {
	return func(c *config[K]) {
		if log != nil {
			c.log = log
		}
	}
}

// New wraps an existing etcd client. Every key is stored under
// "<namespace>/" so multiple caches can share one cluster.
func New[K comparable, V any](client *clientv3.Client, namespace string, opts ...Option[K]) *Cache[K, V] {
	cfg := config[K]{
		keyFn: func(k K) string { return fmt.Sprint(k) },
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Cache[K, V]{
		cli:     client,
		prefix:  namespace + "/",
		ttl:     cfg.ttl,
		refresh: cfg.refresh,
		keyFn:   cfg.keyFn,
		log:     cfg.log,
	}
}

func (c *Cache[K, V]) etcdKey(key K) string {
	return c.prefix + c.keyFn(key)
}

func leaseSeconds(ttl time.Duration) int64 {
	secs := int64(ttl / time.Second)
	if ttl%time.Second != 0 || secs == 0 {
		secs++
	}
	return secs
}

// Get retrieves a value. Keys dropped by lease expiry read as misses.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var zero V
	resp, err := c.cli.Get(ctx, c.etcdKey(key))
	if err != nil {
		return zero, false, &hoard.BackendError{Op: "get", Err: err}
	}
	if resp.Count == 0 {
		return zero, false, nil
	}
	kv := resp.Kvs[0]
	var value V
	if err := json.Unmarshal(kv.Value, &value); err != nil {
		return zero, false, &hoard.BackendError{Op: "get", Err: err}
	}
	if c.refresh && kv.Lease != 0 {
		if _, err := c.cli.KeepAliveOnce(ctx, clientv3.LeaseID(kv.Lease)); err != nil {
			return zero, false, &hoard.BackendError{Op: "get", Err: err}
		}
	}
	return value, true, nil
}

// Set stores the value, attaching a fresh lease when a TTL is configured,
// and returns the previous live value, if any. Expired predecessors never
// appear because the cluster has already dropped them.
func (c *Cache[K, V]) Set(ctx context.Context, key K, value V) (V, bool, error) {
	var zero V
	buf, err := json.Marshal(value)
	if err != nil {
		return zero, false, &hoard.BackendError{Op: "set", Err: err}
	}
	opts := []clientv3.OpOption{clientv3.WithPrevKV()}
	if c.ttl > 0 {
		lease, err := c.cli.Grant(ctx, leaseSeconds(c.ttl))
		if err != nil {
			return zero, false, &hoard.BackendError{Op: "set", Err: err}
		}
		opts = append(opts, clientv3.WithLease(lease.ID))
	}
	resp, err := c.cli.Put(ctx, c.etcdKey(key), string(buf), opts...)
	if err != nil {
		return zero, false, &hoard.BackendError{Op: "set", Err: err}
	}
	if resp.PrevKv == nil {
		return zero, false, nil
	}
	var prev V
	if err := json.Unmarshal(resp.PrevKv.Value, &prev); err != nil {
		return zero, false, &hoard.BackendError{Op: "set", Err: err}
	}
	return prev, true, nil
}

// Remove deletes a key and returns the value it held, if any.
func (c *Cache[K, V]) Remove(ctx context.Context, key K) (V, bool, error) {
	var zero V
	resp, err := c.cli.Delete(ctx, c.etcdKey(key), clientv3.WithPrevKV())
	if err != nil {
		return zero, false, &hoard.BackendError{Op: "remove", Err: err}
	}
	if len(resp.PrevKvs) == 0 {
		return zero, false, nil
	}
	var prev V
	if err := json.Unmarshal(resp.PrevKvs[0].Value, &prev); err != nil {
		return zero, false, &hoard.BackendError{Op: "remove", Err: err}
	}
	return prev, true, nil
}

// GetOrSet returns the existing value, or loads and stores one. Concurrent
// calls for the same key share a single load.
func (c *Cache[K, V]) GetOrSet(ctx context.Context, key K, load func() (V, error)) (V, error) {
	var zero V
	v, err, _ := c.group.Do(c.etcdKey(key), func() (any, error) {
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
	resp, err := c.cli.Delete(ctx, c.prefix, clientv3.WithPrefix())
	if err != nil {
		return &hoard.BackendError{Op: "clear", Err: err}
	}
	c.log.Debug("cache cleared",
		zap.String("prefix", c.prefix),
		zap.Int64("deleted", resp.Deleted),
	)
	return nil
}

// Len counts the keys currently in the cache's namespace.
func (c *Cache[K, V]) Len(ctx context.Context) (int, error) {
	resp, err := c.cli.Get(ctx, c.prefix, clientv3.WithPrefix(), clientv3.WithCountOnly())
	if err != nil {
		return 0, &hoard.BackendError{Op: "len", Err: err}
	}
	return int(resp.Count), nil
}

// Lifespan returns the store's TTL, if one is set.
func (c *Cache[K, V]) Lifespan() (time.Duration, bool) {
	return c.ttl, c.ttl > 0
}

// SetLifespan replaces the TTL applied to subsequent writes and returns the
// previous one. Leases already attached to stored keys are unchanged.
func (c *Cache[K, V]) SetLifespan(ttl time.Duration) (time.Duration, bool) {
	old := c.ttl
	had := old > 0
	c.ttl = ttl
	return old, had
}

var _ hoard.IOCache[string, int] = (*Cache[string, int])(nil)

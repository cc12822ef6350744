// Package slotcache provides a cache holding exactly one entry.
// Loading a different key evicts the current entry, but only after the
// new value was loaded successfully.
package slotcache

import (
	"context"
	"sync"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/log"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/utils/cache"
)

type (
	LoaderFunc[K comparable, V any] func(context.Context, K) (*V, error)
	Option[K comparable, V any]     func(*SlotCache[K, V])

	SlotCache[K comparable, V any] struct {
		mutex  sync.Mutex
		key    K
		value  *V
		loader LoaderFunc[K, V]
		l      *log.Logger
	}
)

var _ cache.Cache[string, int] = (*SlotCache[string, int])(nil)

func WithLoader[K comparable, V any](lf LoaderFunc[K, V]) Option[K, V] {
	return func(c *SlotCache[K, V]) {
		c.loader = lf
	}
}

func WithLogger[K comparable, V any](arg *log.Logger) Option[K, V] {
	return func(c *SlotCache[K, V]) {
		c.l = arg
	}
}

func New[K comparable, V any](opts ...Option[K, V]) *SlotCache[K, V] {
	ret := &SlotCache[K, V]{l: log.Default().Named("cache.slot")}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Lookup returns the cached value if key is the current key.
func (c *SlotCache[K, V]) Lookup(key K) (*V, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.value != nil && c.key == key {
		return c.value, true
	}
	return nil, false
}

// Current returns the cached entry, if any.
func (c *SlotCache[K, V]) Current() (key K, value *V, ok bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.key, c.value, c.value != nil
}

// Get returns the value for key, loading it if the slot holds another key.
// If loading fails the previous entry is kept.
func (c *SlotCache[K, V]) Get(ctx context.Context, key K) (*V, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.value != nil && c.key == key {
		return c.value, nil
	}
	if c.loader == nil {
		return nil, cache.ErrCacheMiss
	}
	v, err := c.loader(ctx, key)
	if err != nil {
		c.l.Warn("error loading entry, keeping previous",
			log.Any("key", key), log.ErrorField(err))
		return nil, err
	}
	c.l.Debug("slot replaced", log.Any("old", c.key), log.Any("new", key))
	c.key = key
	c.value = v
	return v, nil
}

func (c *SlotCache[K, V]) Invalidate(_ context.Context, key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.key == key {
		var zero K
		c.key = zero
		c.value = nil
	}
}

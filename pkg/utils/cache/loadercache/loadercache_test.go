package loadercache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/utils/cache"
)

func TestLoaderCache(t *testing.T) {
	calls := 0
	now := time.Date(2024, 4, 21, 0, 0, 0, 0, time.UTC)
	c := New(
		WithLoader[int, string](func(_ context.Context, k int) (*string, error) {
			calls++
			if k < 0 {
				return nil, errors.New("invalid key")
			}
			v := "v"
			return &v, nil
		}),
		WithExpiration[int, string](time.Minute),
		WithClock[int, string](func() time.Time { return now }),
	)
	ctx := context.Background()

	v, err := c.Get(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, "v", *v)
	_, _ = c.Get(ctx, 1)
	assert.Equal(t, 1, calls, "second get is served from cache")

	now = now.Add(2 * time.Minute)
	_, _ = c.Get(ctx, 1)
	assert.Equal(t, 2, calls, "expired entry is reloaded")

	c.Invalidate(ctx, 1)
	_, _ = c.Get(ctx, 1)
	assert.Equal(t, 3, calls, "invalidated entry is reloaded")

	_, err = c.Get(ctx, -1)
	assert.Error(t, err)
	_, err = c.Get(ctx, -1)
	assert.Error(t, err)
	assert.Equal(t, 5, calls, "errors are not cached")
}

func TestLoaderCacheWithoutLoader(t *testing.T) {
	c := New[string, int]()
	_, err := c.Get(context.Background(), "x")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

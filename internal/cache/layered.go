package cache

import (
	"context"
	"errors"
	"time"
)

// LayeredCache reads through a fast layer into a slower shared or
// persistent one and promotes hits
type LayeredCache struct {
	fast Cache
	slow Cache
}

// NewLayeredCache stacks fast over slow
func NewLayeredCache(fast, slow Cache) *LayeredCache {
	return &LayeredCache{fast: fast, slow: slow}
}

// Get checks the fast layer first, then the slow one
func (c *LayeredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if val, found := c.fast.Get(ctx, key); found {
		return val, true
	}

	if val, found := c.slow.Get(ctx, key); found {
		_ = c.fast.Set(ctx, key, val, 0)
		return val, true
	}

	return nil, false
}

// Set stores the value in both layers
func (c *LayeredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.Join(
		c.fast.Set(ctx, key, value, ttl),
		c.slow.Set(ctx, key, value, ttl),
	)
}

// Delete removes the value from both layers
func (c *LayeredCache) Delete(ctx context.Context, key string) error {
	return errors.Join(
		c.fast.Delete(ctx, key),
		c.slow.Delete(ctx, key),
	)
}

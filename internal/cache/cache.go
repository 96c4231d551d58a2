// Package cache stores resolved pages so repeated analyses of the same URL
// skip the fetch.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ppiankov/newsverify/internal/model"
)

// Cache is a byte store with per-entry expiry
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// keyPrefix versions the stored encoding
const keyPrefix = "newsverify:page:v1:"

// Key derives the cache key for a page URL
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return keyPrefix + hex.EncodeToString(hash[:])
}

// PageCache stores ExtractedContent keyed by the requested URL
type PageCache struct {
	backend Cache
	ttl     time.Duration
}

// NewPageCache wraps backend. A nil backend yields a cache that never hits.
func NewPageCache(backend Cache, ttl time.Duration) *PageCache {
	return &PageCache{backend: backend, ttl: ttl}
}

// Get returns the cached content for url
func (c *PageCache) Get(ctx context.Context, url string) (*model.ExtractedContent, bool) {
	if c == nil || c.backend == nil {
		return nil, false
	}
	data, ok := c.backend.Get(ctx, Key(url))
	if !ok {
		return nil, false
	}

	var content model.ExtractedContent
	if err := json.Unmarshal(data, &content); err != nil {
		_ = c.backend.Delete(ctx, Key(url))
		return nil, false
	}
	return &content, true
}

// Put stores content under url
func (c *PageCache) Put(ctx context.Context, url string, content *model.ExtractedContent) error {
	if c == nil || c.backend == nil || content == nil {
		return nil
	}
	data, err := json.Marshal(content)
	if err != nil {
		return err
	}
	return c.backend.Set(ctx, Key(url), data, c.ttl)
}

// New builds the cache stack for cfg: memory, then disk when a directory is
// configured, then Redis when rdb is non-nil. Returns nil when disabled.
func New(cfg model.CacheConfig, rdb *redis.Client) Cache {
	if !cfg.Enabled {
		return nil
	}

	var c Cache = NewMemoryCache(cfg.TTL, 10*time.Minute)
	if cfg.Dir != "" {
		c = NewLayeredCache(c, NewDiskCache(cfg.Dir, cfg.TTL))
	}
	if rdb != nil {
		c = NewLayeredCache(c, NewRedisCache(rdb, cfg.TTL))
	}
	return c
}

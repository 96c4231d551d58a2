package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "newsverify:ratelimit:"

// RedisStore keeps fixed-window counters in Redis so several server
// processes share one allowance per client
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Take starts the window with SET NX EX and counts with INCR in one
// transaction. Rejected requests are counted too.
func (s *RedisStore) Take(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Decision, error) {
	k := redisKeyPrefix + key

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, window)
		incr = pipe.Incr(ctx, k)
		ttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("redis rate limit: %w", err)
	}

	count := int(incr.Val())
	reset := ttl.Val()
	if reset < 0 {
		reset = window
	}

	d := Decision{
		Allowed: count <= limit,
		Count:   count,
		ResetAt: now.Add(reset),
	}
	if d.Allowed {
		d.Remaining = limit - count
	}
	return d, nil
}

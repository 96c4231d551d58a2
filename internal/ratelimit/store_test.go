package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryStore_Window(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		d, err := s.Take(ctx, "a", 3, time.Minute, start.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("take %d: %v", i, err)
		}
		if !d.Allowed || d.Count != i || d.Remaining != 3-i {
			t.Errorf("take %d: unexpected decision %+v", i, d)
		}
	}

	d, _ := s.Take(ctx, "a", 3, time.Minute, start.Add(10*time.Second))
	if d.Allowed {
		t.Error("expected fourth request to be rejected")
	}
	if d.Count != 3 {
		t.Errorf("expected rejected request not to be counted, got count %d", d.Count)
	}
	if !d.ResetAt.Equal(start.Add(time.Second + time.Minute)) {
		t.Errorf("unexpected reset time %s", d.ResetAt)
	}

	// Exactly one window after the start is still the same window
	d, _ = s.Take(ctx, "a", 3, time.Minute, start.Add(time.Second+time.Minute))
	if d.Allowed {
		t.Error("expected window boundary to still reject")
	}

	d, _ = s.Take(ctx, "a", 3, time.Minute, start.Add(2*time.Second+time.Minute))
	if !d.Allowed || d.Count != 1 {
		t.Errorf("expected new window after expiry, got %+v", d)
	}
}

func TestMemoryStore_KeysIndependent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	if d, _ := s.Take(ctx, "a", 1, time.Minute, now); !d.Allowed {
		t.Fatal("expected first request for a to be allowed")
	}
	if d, _ := s.Take(ctx, "a", 1, time.Minute, now); d.Allowed {
		t.Error("expected second request for a to be rejected")
	}
	if d, _ := s.Take(ctx, "b", 1, time.Minute, now); !d.Allowed {
		t.Error("expected b to have its own allowance")
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	start := time.Now()

	for i := 0; i < sweepEvery-1; i++ {
		_, _ = s.Take(ctx, fmt.Sprintf("client-%d", i), 10, time.Minute, start)
	}
	if s.Len() != sweepEvery-1 {
		t.Fatalf("expected %d keys, got %d", sweepEvery-1, s.Len())
	}

	_, _ = s.Take(ctx, "late", 10, time.Minute, start.Add(2*time.Minute))
	if s.Len() != 1 {
		t.Errorf("expected expired keys to be swept, %d left", s.Len())
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Window(t *testing.T) {
	mr, client := newTestRedis(t)
	s := NewRedisStore(client)
	ctx := context.Background()
	now := time.Now()

	for i := 1; i <= 2; i++ {
		d, err := s.Take(ctx, "1.2.3.4", 2, time.Hour, now)
		if err != nil {
			t.Fatalf("take %d: %v", i, err)
		}
		if !d.Allowed || d.Remaining != 2-i {
			t.Errorf("take %d: unexpected decision %+v", i, d)
		}
	}

	d, err := s.Take(ctx, "1.2.3.4", 2, time.Hour, now)
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed {
		t.Error("expected third request to be rejected")
	}
	if d.ResetAt.Sub(now) > time.Hour || d.ResetAt.Sub(now) < 59*time.Minute {
		t.Errorf("expected reset within the hour, got %s", d.ResetAt.Sub(now))
	}

	if got := mr.TTL(redisKeyPrefix + "1.2.3.4"); got != time.Hour {
		t.Errorf("expected key TTL of one hour, got %s", got)
	}

	mr.FastForward(time.Hour + time.Second)

	d, err = s.Take(ctx, "1.2.3.4", 2, time.Hour, now.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if !d.Allowed || d.Count != 1 {
		t.Errorf("expected fresh window after expiry, got %+v", d)
	}
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.Close()

	_, err := NewRedisStore(client).Take(context.Background(), "k", 1, time.Minute, time.Now())
	if err == nil {
		t.Error("expected error when redis is down")
	}
}

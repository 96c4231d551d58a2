// Package ratelimit enforces a fixed-window request allowance per client.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one Take
type Decision struct {
	Allowed   bool
	Count     int // Requests counted in the current window
	Remaining int
	ResetAt   time.Time
}

// Store counts requests per key. Implementations must be safe for concurrent use.
type Store interface {
	Take(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Decision, error)
}

type windowCounter struct {
	count       int
	windowStart time.Time
	window      time.Duration
}

// sweepEvery is how many Takes pass between removals of expired keys
const sweepEvery = 1024

// MemoryStore keeps counters in process memory
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	takes    int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]*windowCounter)}
}

// Take records a request for key. A window older than window is restarted;
// a full window rejects without counting.
func (s *MemoryStore) Take(_ context.Context, key string, limit int, window time.Duration, now time.Time) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.takes++
	if s.takes%sweepEvery == 0 {
		s.sweep(now)
	}

	c, ok := s.counters[key]
	if !ok || now.Sub(c.windowStart) > window {
		c = &windowCounter{windowStart: now, window: window}
		s.counters[key] = c
	}

	d := Decision{ResetAt: c.windowStart.Add(window)}
	if c.count >= limit {
		d.Count = c.count
		return d, nil
	}

	c.count++
	d.Allowed = true
	d.Count = c.count
	d.Remaining = limit - c.count
	return d, nil
}

// Len returns the number of tracked keys
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}

func (s *MemoryStore) sweep(now time.Time) {
	for k, c := range s.counters {
		if now.Sub(c.windowStart) > c.window {
			delete(s.counters, k)
		}
	}
}

package worker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter spaces out requests to the same host. Each host gets its own
// token bucket, created on first use.
type HostLimiter struct {
	mu           sync.RWMutex
	hosts        map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
}

// NewHostLimiter creates a limiter allowing requestsPerSecond per host.
// A non-positive rate disables limiting.
func NewHostLimiter(requestsPerSecond float64, burst int) *HostLimiter {
	if burst <= 0 {
		burst = 5
	}

	r := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		r = rate.Inf
	}

	return &HostLimiter{
		hosts:        make(map[string]*rate.Limiter),
		defaultRate:  r,
		defaultBurst: burst,
	}
}

// Wait blocks until a request to rawURL's host is allowed or ctx ends
func (l *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	host, err := hostOf(rawURL)
	if err != nil {
		return err
	}
	return l.limiter(host).Wait(ctx)
}

// Allow reports whether a request to rawURL's host may proceed now
func (l *HostLimiter) Allow(rawURL string) bool {
	host, err := hostOf(rawURL)
	if err != nil {
		return false
	}
	return l.limiter(host).Allow()
}

// SlowDown caps a host at one request per delay, as asked by a robots.txt
// Crawl-delay. It never speeds a host up.
func (l *HostLimiter) SlowDown(rawURL string, delay time.Duration) {
	if delay <= 0 {
		return
	}
	host, err := hostOf(rawURL)
	if err != nil {
		return
	}

	want := rate.Every(delay)
	lim := l.limiter(host)
	if lim.Limit() > want {
		lim.SetLimit(want)
		lim.SetBurst(1)
	}
}

func (l *HostLimiter) limiter(host string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.hosts[host]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.hosts[host]; ok {
		return lim
	}
	lim = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.hosts[host] = lim
	return lim
}

// hostOf returns the lowercased host (without port) of rawURL
func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("no host in URL: %s", rawURL)
	}
	return strings.ToLower(u.Hostname()), nil
}

package ratelimit

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/newsverify/internal/apperr"
	"github.com/ppiankov/newsverify/internal/metrics"
)

// Defaults for the per-client allowance
const (
	DefaultLimit  = 100
	DefaultWindow = time.Hour
)

// Limiter applies a Store to HTTP requests keyed by client address
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewLimiter creates a limiter. Non-positive limit or window use the defaults.
func NewLimiter(store Store, limit int, window time.Duration, logger *zap.Logger) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// Limit returns the number of requests allowed per window
func (l *Limiter) Limit() int { return l.limit }

// Window returns the window length
func (l *Limiter) Window() time.Duration { return l.window }

// Middleware rejects clients over their allowance with 429. Store failures
// let the request through.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := l.now()
		key := ClientKey(r)

		d, err := l.store.Take(r.Context(), key, l.limit, l.window, now)
		if err != nil {
			metrics.RateLimitStoreErrors.Inc()
			l.logger.Warn("rate limit store failed, allowing request",
				zap.String("client", key),
				zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			metrics.RateLimited.Inc()
			retry := d.ResetAt.Sub(now)
			if retry < time.Second {
				retry = time.Second
			}
			l.logger.Warn("rate limit exceeded",
				zap.String("client", key),
				zap.String("path", r.URL.Path),
				zap.Int("count", d.Count))

			h.Set("Retry-After", fmt.Sprintf("%d", int(retry.Round(time.Second).Seconds())))
			writeRejection(w, &apperr.RateLimitError{RetryAfter: retry})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientKey identifies the caller by remote address without the port
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRejection(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":  err.Error(),
		"status": "error",
	})
}

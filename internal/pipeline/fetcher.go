package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/ppiankov/newsverify/internal/apperr"
	"github.com/ppiankov/newsverify/internal/metrics"
	"github.com/ppiankov/newsverify/internal/model"
	"github.com/ppiankov/newsverify/internal/util"
	"github.com/ppiankov/newsverify/internal/worker"
)

// errDisallowed is wrapped in a FetchError when robots.txt forbids the page
var errDisallowed = errors.New("disallowed by robots.txt")

// Fetcher fetches HTML pages the way a desktop browser would
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    *worker.HostLimiter
	robots     *util.RobotsChecker // nil unless robots.txt is respected
	logger     *zap.Logger
}

// NewFetcher creates a new Fetcher from the HTTP configuration
func NewFetcher(cfg model.HTTPConfig, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 5
	}
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}

	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: util.NewTransport(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	f := &Fetcher{
		httpClient: client,
		userAgent:  cfg.UserAgent,
		maxBytes:   maxBytes,
		limiter:    worker.NewHostLimiter(cfg.RequestsPerSecond, cfg.BurstSize),
		logger:     logger,
	}
	if cfg.RespectRobots {
		f.robots = util.NewRobotsChecker(client, cfg.UserAgent, cfg.Timeout)
	}
	return f
}

// FetchResult contains the fetched HTML and metadata
type FetchResult struct {
	HTML        []byte // Decoded to UTF-8
	StatusCode  int
	ContentType string
	FinalURL    string
}

// Fetch retrieves rawURL. Every failure is an *apperr.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.robots != nil {
		allowed, delay, err := f.robots.Allowed(ctx, rawURL)
		if err != nil {
			return nil, &apperr.FetchError{URL: rawURL, Err: err}
		}
		if !allowed {
			metrics.PageFetches.WithLabelValues("disallowed").Inc()
			return nil, &apperr.FetchError{URL: rawURL, Err: errDisallowed}
		}
		f.limiter.SlowDown(rawURL, delay)
	}

	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return nil, &apperr.FetchError{URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &apperr.FetchError{URL: rawURL, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		metrics.PageFetches.WithLabelValues("error").Inc()
		return nil, &apperr.FetchError{URL: rawURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.PageFetches.WithLabelValues("error").Inc()
		return nil, &apperr.FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := charset.NewReader(io.LimitReader(resp.Body, f.maxBytes), contentType)
	if err != nil {
		return nil, &apperr.FetchError{URL: rawURL, Err: fmt.Errorf("decode body: %w", err)}
	}
	html, err := io.ReadAll(body)
	if err != nil {
		metrics.PageFetches.WithLabelValues("error").Inc()
		return nil, &apperr.FetchError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}

	finalURL := resp.Request.URL.String()
	f.logger.Debug("fetched page",
		zap.String("url", rawURL),
		zap.String("final_url", finalURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(html)))

	return &FetchResult{
		HTML:        html,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		FinalURL:    finalURL,
	}, nil
}

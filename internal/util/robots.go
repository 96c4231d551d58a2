package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// robotsMaxBytes caps how much of a robots.txt file is read
const robotsMaxBytes = 512 << 10

// RobotsChecker answers whether the fetcher may retrieve a page. Parsed
// robots.txt files are kept per host for the life of the checker.
type RobotsChecker struct {
	httpClient *http.Client
	agent      string

	mu    sync.RWMutex
	hosts map[string]*robotstxt.Group
}

// NewRobotsChecker creates a checker that identifies itself as userAgent.
// A nil client uses a plain client with the given timeout.
func NewRobotsChecker(client *http.Client, userAgent string, timeout time.Duration) *RobotsChecker {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &RobotsChecker{
		httpClient: client,
		agent:      ProductToken(userAgent),
		hosts:      make(map[string]*robotstxt.Group),
	}
}

// Allowed reports whether rawURL may be fetched and the crawl delay the
// site asks for. Sites whose robots.txt cannot be retrieved are allowed.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}

	group := r.group(ctx, u)
	if group == nil {
		return true, 0, nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	return group.Test(path), group.CrawlDelay, nil
}

func (r *RobotsChecker) group(ctx context.Context, u *url.URL) *robotstxt.Group {
	key := u.Scheme + "://" + u.Host

	r.mu.RLock()
	g, ok := r.hosts[key]
	r.mu.RUnlock()
	if ok {
		return g
	}

	data, err := r.fetch(ctx, key+"/robots.txt")
	if err != nil {
		// Not cached, so a later request retries the fetch
		return nil
	}
	g = data.FindGroup(r.agent)

	r.mu.Lock()
	r.hosts[key] = g
	r.mu.Unlock()

	return g
}

func (r *RobotsChecker) fetch(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.agent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, robotsMaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data, nil
}

// ProductToken returns the product name of a User-Agent string, which is
// what robots.txt groups are matched against
func ProductToken(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) == 0 {
		return ua
	}
	return strings.SplitN(parts[0], "/", 2)[0]
}

package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRobotsChecker_Allowed(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		hits.Add(1)
		_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private/\nCrawl-delay: 2\n")
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "newsverify/1.0", 5*time.Second)
	ctx := context.Background()

	allowed, delay, err := checker.Allowed(ctx, server.URL+"/news/story")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !allowed {
		t.Error("Expected /news/story to be allowed")
	}
	if delay != 2*time.Second {
		t.Errorf("Expected crawl delay 2s, got %s", delay)
	}

	allowed, _, _ = checker.Allowed(ctx, server.URL+"/private/page")
	if allowed {
		t.Error("Expected /private/page to be disallowed")
	}

	if hits.Load() != 1 {
		t.Errorf("Expected robots.txt to be fetched once, got %d", hits.Load())
	}
}

func TestRobotsChecker_MissingRobotsAllowsAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "newsverify", 5*time.Second)
	allowed, _, err := checker.Allowed(context.Background(), server.URL+"/anything")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !allowed {
		t.Error("Expected page to be allowed when robots.txt is missing")
	}
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	checker := NewRobotsChecker(nil, "newsverify", time.Second)
	allowed, _, err := checker.Allowed(context.Background(), url+"/page")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !allowed {
		t.Error("Expected page to be allowed when robots.txt is unreachable")
	}
}

func TestProductToken(t *testing.T) {
	tests := map[string]string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64)": "Mozilla",
		"newsverify/1.0": "newsverify",
		"bot":            "bot",
		"":               "",
	}
	for in, want := range tests {
		if got := ProductToken(in); got != want {
			t.Errorf("ProductToken(%q) = %q, want %q", in, got, want)
		}
	}
}

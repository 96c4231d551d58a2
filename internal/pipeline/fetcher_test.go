package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/newsverify/internal/apperr"
	"github.com/ppiankov/newsverify/internal/model"
)

func testHTTPConfig() model.HTTPConfig {
	cfg := model.DefaultConfig().HTTP
	cfg.Timeout = 2 * time.Second
	cfg.RequestsPerSecond = 0
	return cfg
}

func TestFetch_Success(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, "<html><body>OK</body></html>")
	}))
	defer server.Close()

	result, err := NewFetcher(testHTTPConfig(), nil).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if string(result.HTML) != "<html><body>OK</body></html>" {
		t.Errorf("unexpected HTML: %s", result.HTML)
	}
	if !strings.Contains(gotUA, "Mozilla/5.0") {
		t.Errorf("expected browser user agent, got %q", gotUA)
	}
	if !strings.HasPrefix(gotAccept, "text/html") {
		t.Errorf("expected HTML accept header, got %q", gotAccept)
	}
}

func TestFetch_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFetcher(testHTTPConfig(), nil).Fetch(context.Background(), server.URL)

	var fe *apperr.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", fe.StatusCode)
	}
}

func TestFetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.Timeout = 50 * time.Millisecond

	_, err := NewFetcher(cfg, nil).Fetch(context.Background(), server.URL)

	var fe *apperr.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if !fe.Timeout() {
		t.Errorf("expected timeout, got %v", fe.Err)
	}
}

func TestFetch_Redirects(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/final":
			_, _ = fmt.Fprint(w, "<html>done</html>")
		case "/loop":
			http.Redirect(w, r, "/loop", http.StatusFound)
		default:
			http.Redirect(w, r, "/final", http.StatusMovedPermanently)
		}
	}))
	defer server.Close()

	f := NewFetcher(testHTTPConfig(), nil)

	result, err := f.Fetch(context.Background(), server.URL+"/start")
	if err != nil {
		t.Fatalf("expected redirect to be followed, got %v", err)
	}
	if result.FinalURL != server.URL+"/final" {
		t.Errorf("expected final URL %s/final, got %s", server.URL, result.FinalURL)
	}

	if _, err := f.Fetch(context.Background(), server.URL+"/loop"); err == nil {
		t.Error("expected redirect loop to fail")
	}
}

func TestFetch_BodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, strings.Repeat("a", 4096))
	}))
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.MaxBodyBytes = 1024

	result, err := NewFetcher(cfg, nil).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.HTML) != 1024 {
		t.Errorf("expected body capped at 1024 bytes, got %d", len(result.HTML))
	}
}

func TestFetch_Charset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<p>caf\xe9</p>"))
	}))
	defer server.Close()

	result, err := NewFetcher(testHTTPConfig(), nil).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(result.HTML), "café") {
		t.Errorf("expected latin-1 body decoded to UTF-8, got %q", result.HTML)
	}
}

func TestFetch_RobotsDisallowed(t *testing.T) {
	var pageHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
			return
		}
		pageHits.Add(1)
		_, _ = fmt.Fprint(w, "<html>page</html>")
	}))
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.RespectRobots = true
	f := NewFetcher(cfg, nil)

	_, err := f.Fetch(context.Background(), server.URL+"/private/story")
	var fe *apperr.FetchError
	if !errors.As(err, &fe) || !errors.Is(err, errDisallowed) {
		t.Fatalf("expected disallowed FetchError, got %v", err)
	}
	if n := pageHits.Load(); n != 0 {
		t.Errorf("expected no page request, got %d", n)
	}

	if _, err := f.Fetch(context.Background(), server.URL+"/public"); err != nil {
		t.Errorf("expected public page to be fetched, got %v", err)
	}
}

func TestFetch_InvalidURL(t *testing.T) {
	_, err := NewFetcher(testHTTPConfig(), nil).Fetch(context.Background(), "http://")
	var fe *apperr.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Invalid("text", "too short"), http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("analyze: %w", Invalid("url", "bad")), http.StatusBadRequest},
		{"rate limit", &RateLimitError{RetryAfter: time.Minute}, http.StatusTooManyRequests},
		{"fetch", &FetchError{URL: "http://x", StatusCode: 404}, http.StatusOK},
		{"empty content", &EmptyContentError{URL: "http://x", Length: 12}, http.StatusOK},
		{"upstream", &UpstreamError{Attempts: 3}, http.StatusOK},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPublicMessage_HidesInternalDetail(t *testing.T) {
	msg := PublicMessage(errors.New("dial tcp 10.0.0.1:6379: connection refused"))
	if msg != "An unexpected error occurred. Please try again later." {
		t.Errorf("Unexpected message: %q", msg)
	}

	msg = PublicMessage(Invalid("text", "must be at least %d characters", 50))
	if msg != "text: must be at least 50 characters" {
		t.Errorf("Unexpected message: %q", msg)
	}
}

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(context.DeadlineExceeded) {
		t.Error("Expected context.DeadlineExceeded to be a timeout")
	}
	if !IsTimeout(fmt.Errorf("post: %w", timeoutErr{})) {
		t.Error("Expected wrapped net timeout to be a timeout")
	}
	if IsTimeout(errors.New("connection refused")) {
		t.Error("Expected plain error not to be a timeout")
	}
	if IsTimeout(nil) {
		t.Error("Expected nil not to be a timeout")
	}
}

func TestFetchError_Unwrap(t *testing.T) {
	err := &FetchError{URL: "http://x", Err: timeoutErr{}}
	if !err.Timeout() {
		t.Error("Expected fetch error wrapping a timeout to report Timeout()")
	}
	if !errors.Is(err, timeoutErr{}) {
		t.Error("Expected errors.Is to see the wrapped error")
	}
}

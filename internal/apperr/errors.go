// Package apperr defines the error kinds that cross package boundaries
// and how each one surfaces to HTTP callers.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ValidationError is bad caller input. Nothing was fetched or sent upstream.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Invalid is shorthand for a ValidationError
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// FetchError means the page could not be retrieved.
// StatusCode is zero for transport failures.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return "fetch " + e.URL + ": failed"
}

func (e *FetchError) Unwrap() error { return e.Err }

// Timeout reports whether the fetch failed because a deadline passed
func (e *FetchError) Timeout() bool {
	return IsTimeout(e.Err)
}

// EmptyContentError means the page had too little readable text
type EmptyContentError struct {
	URL    string
	Length int
}

func (e *EmptyContentError) Error() string {
	return fmt.Sprintf("insufficient content extracted from %s (%d characters)", e.URL, e.Length)
}

// RateLimitError means the caller exceeded its request allowance
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %s", e.RetryAfter.Round(time.Second))
}

// UpstreamError describes a failed conversation with the verification API.
// It is folded into the response body rather than returned to HTTP callers.
type UpstreamError struct {
	Attempts   int
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("verification API returned status %d after %d attempt(s)", e.StatusCode, e.Attempts)
	case e.Err != nil:
		return fmt.Sprintf("verification API failed after %d attempt(s): %v", e.Attempts, e.Err)
	default:
		return fmt.Sprintf("verification API failed after %d attempt(s)", e.Attempts)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Inline reports whether err belongs in a successful HTTP response body
// (status "error") instead of an HTTP error status.
func Inline(err error) bool {
	var fe *FetchError
	var ee *EmptyContentError
	var ue *UpstreamError
	return errors.As(err, &fe) || errors.As(err, &ee) || errors.As(err, &ue)
}

// HTTPStatus maps an error to the status code the API answers with
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var ve *ValidationError
	var re *RateLimitError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &re):
		return http.StatusTooManyRequests
	case Inline(err):
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns text safe to show a caller. Unclassified errors get a
// generic message; their detail belongs in the log.
func PublicMessage(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "An unexpected error occurred. Please try again later."
	}
	return err.Error()
}

// IsTimeout reports whether err is a deadline or network timeout
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

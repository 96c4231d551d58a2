package llm

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/ppiankov/newsverify/internal/apperr"
)

// retryState is a step of the verification retry loop:
// attempting -> (backoff -> attempting)* -> succeeded | failed
type retryState int

const (
	stateAttempting retryState = iota
	stateBackoff
	stateSucceeded
	stateFailed
)

func (s retryState) String() string {
	switch s {
	case stateAttempting:
		return "attempting"
	case stateBackoff:
		return "backoff"
	case stateSucceeded:
		return "succeeded"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// attemptOutcome classifies the result of a single API call
type attemptOutcome string

const (
	outcomeSuccess     attemptOutcome = "success"
	outcomeTimeout     attemptOutcome = "timeout"
	outcomeRateLimited attemptOutcome = "rate_limited"
	outcomeError       attemptOutcome = "error"
)

func classifyAttempt(err error) attemptOutcome {
	if err == nil {
		return outcomeSuccess
	}
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests {
		return outcomeRateLimited
	}
	if apperr.IsTimeout(err) {
		return outcomeTimeout
	}
	return outcomeError
}

// backoffDelay is the wait before the next attempt. attempt is the
// zero-based index of the attempt that just failed.
func backoffDelay(outcome attemptOutcome, attempt int) time.Duration {
	switch outcome {
	case outcomeTimeout:
		return time.Duration(math.Pow(2, float64(attempt))) * time.Second
	case outcomeRateLimited:
		return time.Duration(5*(attempt+1)) * time.Second
	default:
		return 0
	}
}

// nextState decides where the loop goes after attempt number `attempts`
// (one-based) finished with outcome.
func nextState(outcome attemptOutcome, attempts, maxAttempts int) (retryState, time.Duration) {
	switch outcome {
	case outcomeSuccess:
		return stateSucceeded, 0
	case outcomeTimeout, outcomeRateLimited:
		if attempts < maxAttempts {
			return stateBackoff, backoffDelay(outcome, attempts-1)
		}
		return stateFailed, 0
	default:
		return stateFailed, 0
	}
}

// verifySleepFunc waits between attempts (injectable for tests). It returns
// early with the context error when ctx is done.
var verifySleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

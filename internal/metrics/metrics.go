package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Analysis metrics
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsverify_analyses_total",
			Help: "Total number of analyses run",
		},
		[]string{"type", "status"}, // status: success, error, invalid
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsverify_analysis_duration_seconds",
			Help:    "End to end analysis duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"type"},
	)

	// Page fetch metrics
	PageFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsverify_page_fetches_total",
			Help: "Total number of page fetches",
		},
		[]string{"result"}, // result: ok, error, empty, cached, disallowed
	)

	// Verification API metrics
	VerificationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsverify_verification_attempts_total",
			Help: "Verification API calls by attempt outcome",
		},
		[]string{"outcome"}, // outcome: success, timeout, rate_limited, error
	)

	VerificationResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsverify_verification_results_total",
			Help: "Final verification results by status",
		},
		[]string{"status"}, // status: success, warning, error
	)

	VerificationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsverify_verification_latency_seconds",
			Help:    "Verification API latency per attempt in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	// Rate limiting
	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsverify_rate_limited_total",
			Help: "Requests rejected by the per-client rate limit",
		},
	)

	RateLimitStoreErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsverify_rate_limit_store_errors_total",
			Help: "Rate limit store failures (requests were let through)",
		},
	)

	// Crew metrics
	AgentCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsverify_agent_calls_total",
			Help: "Crew agent LLM calls",
		},
		[]string{"agent", "status"},
	)

	AgentTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsverify_agent_tokens_total",
			Help: "Tokens used by crew agents",
		},
		[]string{"agent"},
	)
)

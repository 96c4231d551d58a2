package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/newsverify/internal/apperr"
	"github.com/ppiankov/newsverify/internal/metrics"
	"github.com/ppiankov/newsverify/internal/model"
	"github.com/ppiankov/newsverify/internal/util"
)

// Messages placed in the reply when no answer could be obtained
const (
	msgNotConfigured = "Verification API not configured. Set PERPLEXITY_API_KEY to enable fact checking."
	msgEmptyReply    = "The verification API returned no answer."
)

// VerifierConfig configures the verification client
type VerifierConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration // Per attempt
	MaxRetries  int           // Total attempts
	MaxTokens   int
	Temperature float32 // Zero uses 0.2

	// Proxy settings, as for page fetching
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// VerifierConfigFromModel converts model.VerifyConfig to VerifierConfig,
// taking proxy settings from httpCfg
func VerifierConfigFromModel(c model.VerifyConfig, httpCfg model.HTTPConfig) VerifierConfig {
	return VerifierConfig{
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		Timeout:     time.Duration(c.Timeout) * time.Second,
		MaxRetries:  c.MaxRetries,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		HTTPProxy:   httpCfg.HTTPProxy,
		HTTPSProxy:  httpCfg.HTTPSProxy,
		NoProxy:     httpCfg.NoProxy,
	}
}

// Verifier sends prompts to a Perplexity style chat completions endpoint and
// turns every outcome into a VerificationResult.
type Verifier struct {
	config     VerifierConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// VerifierOption customizes a Verifier
type VerifierOption func(*Verifier)

// WithHTTPClient replaces the HTTP client used for API calls
func WithHTTPClient(c *http.Client) VerifierOption {
	return func(v *Verifier) { v.httpClient = c }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) VerifierOption {
	return func(v *Verifier) { v.logger = l }
}

// NewVerifier creates a verification client, filling unset fields with defaults
func NewVerifier(cfg VerifierConfig, opts ...VerifierOption) *Verifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = PerplexityBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "sonar"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 3
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.2
	}

	v := &Verifier{
		config: cfg,
		httpClient: &http.Client{
			Transport: util.NewTransport(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Configured reports whether an API key is set
func (v *Verifier) Configured() bool {
	return v.config.APIKey != ""
}

// Model returns the model name sent with each request
func (v *Verifier) Model() string {
	return v.config.Model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
	Usage     struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Verify sends the prompt, retrying timeouts and rate limits. It never
// returns an error; problems are reported through the result status.
func (v *Verifier) Verify(ctx context.Context, p Prompt) model.VerificationResult {
	if !v.Configured() {
		metrics.VerificationResults.WithLabelValues(string(model.VerificationWarning)).Inc()
		return model.VerificationResult{
			ReplyText: msgNotConfigured,
			Status:    model.VerificationWarning,
		}
	}

	req := chatRequest{
		Model: v.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		MaxTokens:   v.config.MaxTokens,
		Temperature: v.config.Temperature,
	}

	var (
		state    = stateAttempting
		attempts int
		delay    time.Duration
		outcome  attemptOutcome
		resp     *chatResponse
		lastErr  error
	)

	for {
		switch state {
		case stateAttempting:
			attempts++
			resp, lastErr = v.send(ctx, req)
			outcome = classifyAttempt(lastErr)
			metrics.VerificationAttempts.WithLabelValues(string(outcome)).Inc()
			state, delay = nextState(outcome, attempts, v.config.MaxRetries)

			if lastErr != nil {
				v.logger.Warn("verification attempt failed",
					zap.Int("attempt", attempts),
					zap.Int("max_attempts", v.config.MaxRetries),
					zap.String("outcome", string(outcome)),
					zap.Stringer("next", state),
					zap.Duration("backoff", delay),
					zap.Error(lastErr),
				)
			}

		case stateBackoff:
			if err := verifySleepFunc(ctx, delay); err != nil {
				lastErr = err
				state = stateFailed
				continue
			}
			state = stateAttempting

		case stateSucceeded:
			return v.succeeded(resp, attempts)

		case stateFailed:
			return v.failed(outcome, lastErr, attempts)
		}
	}
}

// send performs one API call under the per-attempt timeout
func (v *Verifier) send(ctx context.Context, req chatRequest) (*chatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, v.config.Timeout)
	defer cancel()

	start := time.Now()
	defer func() { metrics.VerificationLatency.Observe(time.Since(start).Seconds()) }()

	var resp chatResponse
	err := postJSON(ctx, v.httpClient, v.config.BaseURL+"/chat/completions", map[string]string{
		"Authorization": "Bearer " + v.config.APIKey,
	}, req, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (v *Verifier) succeeded(resp *chatResponse, attempts int) model.VerificationResult {
	modelName := v.config.Model
	if resp.Model != "" {
		modelName = resp.Model
	}

	var content string
	if len(resp.Choices) > 0 {
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if content == "" {
		metrics.VerificationResults.WithLabelValues(string(model.VerificationWarning)).Inc()
		return model.VerificationResult{
			ReplyText: msgEmptyReply,
			Status:    model.VerificationWarning,
			Attempts:  attempts,
			Model:     modelName,
		}
	}

	v.logger.Debug("verification succeeded",
		zap.Int("attempts", attempts),
		zap.Int("citations", len(resp.Citations)),
	)
	metrics.VerificationResults.WithLabelValues(string(model.VerificationSuccess)).Inc()

	return model.VerificationResult{
		ReplyText: content,
		Citations: resp.Citations,
		Status:    model.VerificationSuccess,
		Attempts:  attempts,
		Model:     modelName,
	}
}

func (v *Verifier) failed(outcome attemptOutcome, err error, attempts int) model.VerificationResult {
	ue := &apperr.UpstreamError{Attempts: attempts, Err: err}

	var text string
	switch outcome {
	case outcomeTimeout:
		text = fmt.Sprintf("The verification API timed out after %d attempt(s). Please try again later.", attempts)
	case outcomeRateLimited:
		ue.StatusCode = http.StatusTooManyRequests
		text = fmt.Sprintf("The verification API is rate limiting requests (gave up after %d attempt(s)). Please try again later.", attempts)
	default:
		var se *StatusError
		if errors.As(err, &se) {
			ue.StatusCode = se.StatusCode
		}
		text = "Verification failed: " + ue.Error()
	}

	v.logger.Error("verification failed", zap.Error(ue))
	metrics.VerificationResults.WithLabelValues(string(model.VerificationError)).Inc()

	return model.VerificationResult{
		ReplyText: text,
		Status:    model.VerificationError,
		Attempts:  attempts,
		Model:     v.config.Model,
	}
}

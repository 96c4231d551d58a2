package pipeline

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/newsverify/internal/apperr"
	"github.com/ppiankov/newsverify/internal/cache"
	"github.com/ppiankov/newsverify/internal/extract"
	"github.com/ppiankov/newsverify/internal/llm"
	"github.com/ppiankov/newsverify/internal/metrics"
	"github.com/ppiankov/newsverify/internal/model"
	"github.com/ppiankov/newsverify/internal/score"
	"github.com/ppiankov/newsverify/internal/validate"
)

// TextPreviewLength is how much submitted text is echoed back
const TextPreviewLength = 500

// ContentResolver turns a URL into page content
type ContentResolver interface {
	Resolve(ctx context.Context, rawURL string) (*model.ExtractedContent, error)
}

// Verifier asks the remote API for an assessment
type Verifier interface {
	Verify(ctx context.Context, p llm.Prompt) model.VerificationResult
	Configured() bool
}

// Pipeline runs one analysis: validate, resolve, score, verify
type Pipeline struct {
	resolver ContentResolver
	scorer   *score.Scorer
	verifier Verifier
	logger   *zap.Logger
	now      func() time.Time
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithResolver replaces the page resolver
func WithResolver(r ContentResolver) Option {
	return func(p *Pipeline) { p.resolver = r }
}

// WithVerifier replaces the verification client
func WithVerifier(v Verifier) Option {
	return func(p *Pipeline) { p.verifier = v }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates a new pipeline with the given configuration. pages may be nil.
func NewPipeline(cfg *model.Config, pages cache.Cache, opts ...Option) *Pipeline {
	p := &Pipeline{
		scorer: score.NewScorer(&cfg.Score),
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.resolver == nil {
		fetcher := NewFetcher(cfg.HTTP, p.logger)
		p.resolver = NewResolver(fetcher, cache.NewPageCache(pages, cfg.Cache.TTL), p.logger)
	}
	if p.verifier == nil {
		p.verifier = llm.NewVerifier(llm.VerifierConfigFromModel(cfg.Verify, cfg.HTTP), llm.WithLogger(p.logger))
	}
	return p
}

// VerifierConfigured reports whether verification calls will be made
func (p *Pipeline) VerifierConfigured() bool {
	return p.verifier.Configured()
}

// Analyze runs the whole analysis for req. Bad input returns an
// *apperr.ValidationError before any network call. Pages that cannot be
// resolved produce a response with status "error" and a nil error.
func (p *Pipeline) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error) {
	start := time.Now()

	req, err := validate.Request(req)
	if err != nil {
		kind := string(req.Kind)
		if !req.Kind.Valid() {
			kind = "unknown"
		}
		metrics.AnalysesTotal.WithLabelValues(kind, "invalid").Inc()
		return nil, err
	}

	resp := &model.AnalysisResponse{
		ID:        uuid.NewString(),
		Kind:      req.Kind,
		Status:    model.StatusSuccess,
		Timestamp: p.now(),
	}
	log := p.logger.With(zap.String("id", resp.ID), zap.String("type", string(req.Kind)))

	var prompt llm.Prompt
	switch req.Kind {
	case model.KindURL:
		content, err := p.resolver.Resolve(ctx, req.RawContent)
		if err != nil {
			if !apperr.Inline(err) {
				return nil, fmt.Errorf("resolve %s: %w", req.RawContent, err)
			}
			log.Warn("content not resolved", zap.String("url", req.RawContent), zap.Error(err))
			resp.Status = model.StatusError
			resp.Error = "Error extracting content: " + err.Error()
			p.finish(resp, start)
			return resp, nil
		}
		resp.ContentData = content
		resp.Scores = p.scorer.Score(content.Domain, content.Body)
		resp.KeyPoints = extract.KeyPoints(content.Body, 0)
		prompt = llm.URLPrompt(content)

	case model.KindText:
		resp.TextData = &model.TextSummary{
			Preview: validate.Preview(req.RawContent, TextPreviewLength),
			Length:  utf8.RuneCountInString(req.RawContent),
		}
		resp.Scores = p.scorer.Score("", req.RawContent)
		resp.KeyPoints = extract.KeyPoints(req.RawContent, 0)
		prompt = llm.TextPrompt(req.RawContent)
	}

	analysis := p.verifier.Verify(ctx, prompt)
	resp.Analysis = &analysis

	log.Info("analysis complete",
		zap.String("verification", string(analysis.Status)),
		zap.Int("attempts", analysis.Attempts),
		zap.Duration("elapsed", time.Since(start)))

	p.finish(resp, start)
	return resp, nil
}

func (p *Pipeline) finish(resp *model.AnalysisResponse, start time.Time) {
	metrics.AnalysesTotal.WithLabelValues(string(resp.Kind), string(resp.Status)).Inc()
	metrics.AnalysisDuration.WithLabelValues(string(resp.Kind)).Observe(time.Since(start).Seconds())
}

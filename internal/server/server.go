// Package server is the web front end: HTML forms, the JSON API and
// operational endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ppiankov/newsverify/internal/model"
	"github.com/ppiankov/newsverify/internal/ratelimit"
)

// Analyzer runs one analysis request
type Analyzer interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error)
}

// Server serves the web UI and API
type Server struct {
	cfg      *model.Config
	analyzer Analyzer
	limiter  *ratelimit.Limiter
	flash    *FlashCodec
	pages    *template.Template
	logger   *zap.Logger
	version  string
	router   chi.Router
}

// Option customizes a Server
type Option func(*Server)

// WithLimiter enables per-client rate limiting on the analysis endpoints
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithVersion sets the version reported by /status
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates a server and builds its routes
func New(cfg *model.Config, analyzer Analyzer, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		logger:   zap.NewNop(),
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	flash, err := NewFlashCodec(cfg.Server.SecretKey)
	if err != nil {
		return nil, err
	}
	s.flash = flash

	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	s.pages = pages

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// Forwarding headers are client controlled; only honor them behind a proxy
	// that sets them, otherwise rate limit keys could be spoofed.
	if s.cfg.Server.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.accessLog)
	r.Use(s.recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}
		r.Post("/analyze_url", s.handleAnalyzeURL)
		r.Post("/analyze_text", s.handleAnalyzeText)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.Server.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
			MaxAge:         300,
		}))
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}
		r.Post("/analyze", s.handleAPIAnalyze)
	})

	return r
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down", zap.Duration("timeout", timeout))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

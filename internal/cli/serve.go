package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/newsverify/internal/cache"
	"github.com/ppiankov/newsverify/internal/model"
	"github.com/ppiankov/newsverify/internal/pipeline"
	"github.com/ppiankov/newsverify/internal/ratelimit"
	"github.com/ppiankov/newsverify/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web interface and JSON API",
	Long: `Serve starts the HTTP server:
- GET  /               analysis form
- POST /analyze_url    form submission for a URL
- POST /analyze_text   form submission for text
- POST /api/analyze    JSON API
- GET  /health, /status, /metrics

Example:
  newsverify serve
  newsverify serve --addr :8080 --rate-store redis`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":5000", "listen address")
	serveCmd.Flags().String("rate-store", "memory", "rate limit store (memory, redis)")
	serveCmd.Flags().String("cache-dir", "", "persist resolved pages under this directory")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("rate_limit.store", serveCmd.Flags().Lookup("rate-store"))
	_ = viper.BindPFlag("cache.dir", serveCmd.Flags().Lookup("cache-dir"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := redisClient(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	p := pipeline.NewPipeline(cfg, cache.New(cfg.Cache, rdb), pipeline.WithLogger(logger))
	if !p.VerifierConfigured() {
		logger.Warn("PERPLEXITY_API_KEY not set, verification disabled")
	}

	opts := []server.Option{server.WithLogger(logger), server.WithVersion(Version)}
	if cfg.RateLimit.Enabled {
		var store ratelimit.Store = ratelimit.NewMemoryStore()
		if rdb != nil {
			store = ratelimit.NewRedisStore(rdb)
		}
		limiter := ratelimit.NewLimiter(store, cfg.RateLimit.Limit, cfg.RateLimit.Window, logger)
		opts = append(opts, server.WithLimiter(limiter))
	}

	srv, err := server.New(cfg, p, opts...)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	logger.Info("starting server",
		zap.String("addr", cfg.Server.Addr),
		zap.String("version", Version),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.String("rate_store", cfg.RateLimit.Store))
	return srv.Run(ctx)
}

// redisClient connects when the rate limit store is redis. Both the limiter
// and the page cache share the client.
func redisClient(ctx context.Context, cfg *model.Config) (*redis.Client, error) {
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Store != "redis" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RateLimit.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}

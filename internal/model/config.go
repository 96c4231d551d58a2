package model

import (
	"fmt"
	"time"
)

// Config holds the complete runtime configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	HTTP        HTTPConfig        `yaml:"http"`
	Verify      VerifyConfig      `yaml:"verify"`
	LLM         LLMConfig         `yaml:"llm"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Cache       CacheConfig       `yaml:"cache"`
	Score       ScoreConfig       `yaml:"score"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Log         LogConfig         `yaml:"log"`
}

// ServerConfig configures the web front end
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	SecretKey       string        `yaml:"-"` // SECRET_KEY, signs flash cookies
	Debug           bool          `yaml:"debug"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	TrustProxy      bool          `yaml:"trust_proxy"` // Take the client address from X-Forwarded-For / X-Real-IP
}

// HTTPConfig configures page fetching
type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	UserAgent         string        `yaml:"user_agent"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
	MaxRedirects      int           `yaml:"max_redirects"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty"`
	NoProxy           string        `yaml:"no_proxy,omitempty"`
	RespectRobots     bool          `yaml:"respect_robots"`
	RequestsPerSecond float64       `yaml:"requests_per_second"` // Per target host
	BurstSize         int           `yaml:"burst_size"`
}

// VerifyConfig configures the verification API client
type VerifyConfig struct {
	APIKey      string  `yaml:"-"` // PERPLEXITY_API_KEY
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Timeout     int     `yaml:"timeout"` // seconds, per attempt (TIMEOUT)
	MaxRetries  int     `yaml:"max_retries"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// LLMConfig configures the provider used by the agent crew
type LLMConfig struct {
	Provider  string `yaml:"provider"` // openai, perplexity
	APIKey    string `yaml:"-"`        // OPENAI_API_KEY, or PERPLEXITY_API_KEY for perplexity
	BaseURL   string `yaml:"base_url,omitempty"`
	Model     string `yaml:"model"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// RateLimitConfig configures the per-client request limit
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Limit    int           `yaml:"limit"`
	Window   time.Duration `yaml:"window"`
	Store    string        `yaml:"store"` // memory, redis
	RedisURL string        `yaml:"redis_url,omitempty"`
}

// CacheConfig configures the resolved-page cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	Dir     string        `yaml:"dir,omitempty"` // Enables the disk layer when set
}

// ScoreConfig extends the built-in domain lists
type ScoreConfig struct {
	ReputableDomains  []string `yaml:"reputable_domains,omitempty"`
	SuspiciousDomains []string `yaml:"suspicious_domains,omitempty"`
}

// ConcurrencyConfig configures batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// LogConfig configures zap
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":5000",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		HTTP: HTTPConfig{
			Timeout:           15 * time.Second,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			MaxBodyBytes:      2_000_000,
			MaxRedirects:      5,
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Verify: VerifyConfig{
			BaseURL:     "https://api.perplexity.ai",
			Model:       "sonar",
			Timeout:     30,
			MaxRetries:  3,
			MaxTokens:   500,
			Temperature: 0.2,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			Timeout:   60,
			MaxTokens: 1000,
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Limit:    100,
			Window:   time.Hour,
			Store:    "memory",
			RedisURL: "redis://localhost:6379/0",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks values that would otherwise fail deep inside a component
func (c *Config) Validate() error {
	if c.Verify.MaxRetries < 1 {
		return fmt.Errorf("verify.max_retries must be at least 1, got %d", c.Verify.MaxRetries)
	}
	if c.Verify.Timeout <= 0 {
		return fmt.Errorf("verify.timeout must be positive, got %d", c.Verify.Timeout)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %s", c.HTTP.Timeout)
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Limit <= 0 {
			return fmt.Errorf("rate_limit.limit must be positive, got %d", c.RateLimit.Limit)
		}
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate_limit.window must be positive, got %s", c.RateLimit.Window)
		}
		switch c.RateLimit.Store {
		case "memory", "redis":
		default:
			return fmt.Errorf("unknown rate_limit.store: %s (supported: memory, redis)", c.RateLimit.Store)
		}
	}
	return nil
}

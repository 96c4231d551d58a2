package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/newsverify/internal/logging"
	"github.com/ppiankov/newsverify/internal/model"
)

// Version is reported by `newsverify version` and GET /status
const Version = "1.0.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "newsverify",
	Short: "newsverify - fake news detection for articles and text",
	Long: `newsverify checks news articles and free text for signs of misinformation.

A URL is fetched and its readable content extracted; text is analyzed as
submitted. Both get rule-based credibility and quality scores, and, when a
PERPLEXITY_API_KEY is configured, an assessment from a search-backed
language model.

Scores are estimates, not verdicts.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("newsverify v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.newsverify/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (console, json)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// legacyEnv are the variable names the service has always read
var legacyEnv = map[string]string{
	"verify.api_key":       "PERPLEXITY_API_KEY",
	"llm.api_key":          "OPENAI_API_KEY",
	"server.secret_key":    "SECRET_KEY",
	"verify.max_retries":   "MAX_RETRIES",
	"verify.timeout":       "TIMEOUT",
	"server.debug":         "DEBUG",
	"rate_limit.redis_url": "REDIS_URL",
}

// initConfig loads .env, then the config file, then binds environment variables
func initConfig() {
	// A missing .env is normal
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.newsverify")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// NEWSVERIFY_VERIFY_MODEL overrides verify.model and so on
	viper.SetEnvPrefix("NEWSVERIFY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for key, env := range legacyEnv {
		_ = viper.BindEnv(key, "NEWSVERIFY_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults, the config file and the environment
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyOverrides(cfg)

	// The crew uses Perplexity with the verification key unless told otherwise
	if cfg.LLM.Provider == "perplexity" && viper.GetString("llm.api_key") == "" {
		cfg.LLM.APIKey = cfg.Verify.APIKey
	}
	if cfg.Server.Debug {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyOverrides copies every key viper knows about onto cfg. Each key is
// also settable as NEWSVERIFY_<SECTION>_<KEY>.
func applyOverrides(cfg *model.Config) {
	str := func(key string, dst *string) {
		if viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if viper.IsSet(key) {
			*dst = viper.GetInt(key)
		}
	}
	flag := func(key string, dst *bool) {
		if viper.IsSet(key) {
			*dst = viper.GetBool(key)
		}
	}
	dur := func(key string, dst *time.Duration) {
		if viper.IsSet(key) {
			*dst = viper.GetDuration(key)
		}
	}
	list := func(key string, dst *[]string) {
		if viper.IsSet(key) {
			*dst = splitList(viper.Get(key))
		}
	}

	str("server.addr", &cfg.Server.Addr)
	str("server.secret_key", &cfg.Server.SecretKey)
	flag("server.debug", &cfg.Server.Debug)
	dur("server.read_timeout", &cfg.Server.ReadTimeout)
	dur("server.write_timeout", &cfg.Server.WriteTimeout)
	dur("server.shutdown_timeout", &cfg.Server.ShutdownTimeout)
	list("server.cors_origins", &cfg.Server.CORSOrigins)
	flag("server.trust_proxy", &cfg.Server.TrustProxy)

	dur("http.timeout", &cfg.HTTP.Timeout)
	str("http.user_agent", &cfg.HTTP.UserAgent)
	if viper.IsSet("http.max_body_bytes") {
		cfg.HTTP.MaxBodyBytes = viper.GetInt64("http.max_body_bytes")
	}
	num("http.max_redirects", &cfg.HTTP.MaxRedirects)
	str("http.http_proxy", &cfg.HTTP.HTTPProxy)
	str("http.https_proxy", &cfg.HTTP.HTTPSProxy)
	str("http.no_proxy", &cfg.HTTP.NoProxy)
	flag("http.respect_robots", &cfg.HTTP.RespectRobots)
	if viper.IsSet("http.requests_per_second") {
		cfg.HTTP.RequestsPerSecond = viper.GetFloat64("http.requests_per_second")
	}
	num("http.burst_size", &cfg.HTTP.BurstSize)

	str("verify.api_key", &cfg.Verify.APIKey)
	str("verify.base_url", &cfg.Verify.BaseURL)
	str("verify.model", &cfg.Verify.Model)
	num("verify.timeout", &cfg.Verify.Timeout)
	num("verify.max_retries", &cfg.Verify.MaxRetries)
	num("verify.max_tokens", &cfg.Verify.MaxTokens)
	if viper.IsSet("verify.temperature") {
		cfg.Verify.Temperature = float32(viper.GetFloat64("verify.temperature"))
	}

	str("llm.provider", &cfg.LLM.Provider)
	str("llm.api_key", &cfg.LLM.APIKey)
	str("llm.base_url", &cfg.LLM.BaseURL)
	str("llm.model", &cfg.LLM.Model)
	num("llm.timeout", &cfg.LLM.Timeout)
	num("llm.max_tokens", &cfg.LLM.MaxTokens)

	flag("rate_limit.enabled", &cfg.RateLimit.Enabled)
	num("rate_limit.limit", &cfg.RateLimit.Limit)
	dur("rate_limit.window", &cfg.RateLimit.Window)
	str("rate_limit.store", &cfg.RateLimit.Store)
	str("rate_limit.redis_url", &cfg.RateLimit.RedisURL)

	flag("cache.enabled", &cfg.Cache.Enabled)
	dur("cache.ttl", &cfg.Cache.TTL)
	str("cache.dir", &cfg.Cache.Dir)

	list("score.reputable_domains", &cfg.Score.ReputableDomains)
	list("score.suspicious_domains", &cfg.Score.SuspiciousDomains)

	num("concurrency.workers", &cfg.Concurrency.Workers)

	str("log.level", &cfg.Log.Level)
	str("log.format", &cfg.Log.Format)
}

// splitList accepts a YAML list or a comma or space separated string
func splitList(v any) []string {
	var parts []string
	switch t := v.(type) {
	case string:
		parts = strings.FieldsFunc(t, func(r rune) bool { return r == ',' || r == ' ' })
	default:
		parts = cast.ToStringSlice(t)
	}
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// newLogger builds the process logger from cfg
func newLogger(cfg *model.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log.Level, cfg.Log.Format)
}

package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/newsverify/internal/model"
)

// resetConfig isolates a test from global viper state and the user's home
func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())
	for _, env := range []string{"PERPLEXITY_API_KEY", "OPENAI_API_KEY", "SECRET_KEY", "MAX_RETRIES", "TIMEOUT", "DEBUG", "REDIS_URL"} {
		t.Setenv(env, "")
	}
	cfgFile = ""
	t.Cleanup(func() { cfgFile = "" })
}

func TestLoadConfig_Defaults(t *testing.T) {
	resetConfig(t)
	initConfig()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	def := model.DefaultConfig()
	if cfg.Verify.MaxRetries != def.Verify.MaxRetries || cfg.Verify.Timeout != def.Verify.Timeout {
		t.Errorf("expected default verify settings, got %+v", cfg.Verify)
	}
	if cfg.Verify.APIKey != "" {
		t.Error("expected no API key")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected info level, got %s", cfg.Log.Level)
	}
}

func TestLoadConfig_LegacyEnv(t *testing.T) {
	resetConfig(t)
	t.Setenv("PERPLEXITY_API_KEY", "pplx-test")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("TIMEOUT", "12")
	t.Setenv("DEBUG", "true")
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("NEWSVERIFY_VERIFY_MODEL", "sonar-pro")
	initConfig()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Verify.APIKey != "pplx-test" {
		t.Errorf("expected API key from env, got %q", cfg.Verify.APIKey)
	}
	if cfg.Verify.MaxRetries != 5 || cfg.Verify.Timeout != 12 {
		t.Errorf("expected retries 5 and timeout 12, got %d and %d", cfg.Verify.MaxRetries, cfg.Verify.Timeout)
	}
	if cfg.Verify.Model != "sonar-pro" {
		t.Errorf("expected prefixed override, got %s", cfg.Verify.Model)
	}
	if !cfg.Server.Debug || cfg.Log.Level != "debug" {
		t.Errorf("expected DEBUG to force debug logging, got debug=%v level=%s", cfg.Server.Debug, cfg.Log.Level)
	}
	if cfg.Server.SecretKey != "s3cret" {
		t.Errorf("expected secret key from env")
	}
}

func TestLoadConfig_File(t *testing.T) {
	resetConfig(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "server:\n  addr: \":8080\"\nrate_limit:\n  enabled: true\n  limit: 20\n  window: 30m\n  store: memory\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgFile = path
	initConfig()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected addr from file, got %s", cfg.Server.Addr)
	}
	if cfg.RateLimit.Limit != 20 || cfg.RateLimit.Window != 30*time.Minute {
		t.Errorf("expected limit 20 per 30m, got %d per %s", cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}
	if cfg.Verify.MaxRetries != 3 {
		t.Errorf("expected untouched keys to keep defaults, got %d", cfg.Verify.MaxRetries)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	resetConfig(t)
	t.Setenv("MAX_RETRIES", "0")
	initConfig()

	if _, err := loadConfig(); err == nil {
		t.Error("expected validation error for zero retries")
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config does not parse: %v", err)
	}
	if cfg.Server.Addr != ":5000" || cfg.RateLimit.Window != time.Hour {
		t.Errorf("unexpected round trip: addr=%s window=%s", cfg.Server.Addr, cfg.RateLimit.Window)
	}
}

func TestLoadConfig_PrefixedEnvCoversEveryKind(t *testing.T) {
	resetConfig(t)
	t.Setenv("NEWSVERIFY_VERIFY_TEMPERATURE", "0.5")
	t.Setenv("NEWSVERIFY_LLM_TIMEOUT", "90")
	t.Setenv("NEWSVERIFY_LLM_MAX_TOKENS", "2000")
	t.Setenv("NEWSVERIFY_CACHE_TTL", "5m")
	t.Setenv("NEWSVERIFY_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("NEWSVERIFY_SERVER_TRUST_PROXY", "true")
	t.Setenv("NEWSVERIFY_HTTP_REQUESTS_PER_SECOND", "0.5")
	t.Setenv("NEWSVERIFY_HTTP_MAX_BODY_BYTES", "1000000")
	t.Setenv("NEWSVERIFY_SCORE_SUSPICIOUS_DOMAINS", "rumors.example")
	initConfig()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Verify.Temperature != 0.5 {
		t.Errorf("expected temperature 0.5, got %v", cfg.Verify.Temperature)
	}
	if cfg.LLM.Timeout != 90 || cfg.LLM.MaxTokens != 2000 {
		t.Errorf("expected llm timeout 90 and max tokens 2000, got %d and %d", cfg.LLM.Timeout, cfg.LLM.MaxTokens)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("expected cache ttl 5m, got %s", cfg.Cache.TTL)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != "https://a.example" || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected cors origins %q", cfg.Server.CORSOrigins)
	}
	if !cfg.Server.TrustProxy {
		t.Error("expected trust_proxy from env")
	}
	if cfg.HTTP.RequestsPerSecond != 0.5 || cfg.HTTP.MaxBodyBytes != 1_000_000 {
		t.Errorf("unexpected http settings %+v", cfg.HTTP)
	}
	if len(cfg.Score.SuspiciousDomains) != 1 || cfg.Score.SuspiciousDomains[0] != "rumors.example" {
		t.Errorf("unexpected suspicious domains %q", cfg.Score.SuspiciousDomains)
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList("a, b c,,"); len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("unexpected split %q", got)
	}
	if got := splitList([]any{"x", " y "}); len(got) != 2 || got[1] != "y" {
		t.Errorf("unexpected list %q", got)
	}
}

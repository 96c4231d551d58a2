package llm

import (
	"context"
	"regexp"
	"strings"

	"github.com/ppiankov/newsverify/internal/model"
)

// Provider is a chat model the agent crew can send prompts to
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one system+user exchange and returns the reply
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is a single prompt for a Provider
type CompletionRequest struct {
	System string
	Prompt string

	// Model overrides the configured model when set
	Model string

	// MaxTokens overrides the configured limit when positive
	MaxTokens int

	Temperature float32
}

// CompletionResponse is a provider reply
type CompletionResponse struct {
	Content string

	// Citations are source URLs, either returned by the API or found in Content
	Citations []string

	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "perplexity", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   60,
		MaxTokens: 1000,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(llmCfg model.LLMConfig, httpCfg model.HTTPConfig) Config {
	return Config{
		Provider:   llmCfg.Provider,
		Model:      llmCfg.Model,
		APIKey:     llmCfg.APIKey,
		BaseURL:    llmCfg.BaseURL,
		Timeout:    llmCfg.Timeout,
		MaxTokens:  llmCfg.MaxTokens,
		HTTPProxy:  httpCfg.HTTPProxy,
		HTTPSProxy: httpCfg.HTTPSProxy,
		NoProxy:    httpCfg.NoProxy,
	}
}

func (c Config) maxTokens(req CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1000
}

func (c Config) model(req CompletionRequest, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}

var urlPattern = regexp.MustCompile(`https?://[^\s\)\]>"']+`)

// extractURLs returns the unique http(s) URLs mentioned in text
func extractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)

	seen := make(map[string]bool)
	var unique []string
	for _, u := range matches {
		u = strings.TrimRight(u, ".,;:!?")
		if !seen[u] {
			seen[u] = true
			unique = append(unique, u)
		}
	}

	return unique
}

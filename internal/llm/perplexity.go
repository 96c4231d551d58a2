package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/newsverify/internal/util"
)

// PerplexityBaseURL is the OpenAI-compatible endpoint of Perplexity
const PerplexityBaseURL = "https://api.perplexity.ai"

// PerplexityProvider calls Perplexity's chat completions API. Replies carry
// a top-level citations array that go-openai's response type drops, so the
// request goes through the same wire types as the Verifier.
type PerplexityProvider struct {
	httpClient *http.Client
	baseURL    string
	config     Config
}

// NewPerplexityProvider creates a provider for Perplexity's chat API
func NewPerplexityProvider(config Config) (*PerplexityProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("perplexity API key is required")
	}
	baseURL := PerplexityBaseURL
	if config.BaseURL != "" {
		baseURL = config.BaseURL
	}
	return &PerplexityProvider{
		httpClient: &http.Client{
			Transport: util.NewTransport(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		config:  config,
	}, nil
}

// Name returns the provider name
func (p *PerplexityProvider) Name() string {
	return "perplexity"
}

// Complete sends the prompt and returns the reply with the API's citations.
// URLs in the reply text are used when the API sends none.
func (p *PerplexityProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := p.config.model(req, "sonar")

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	var resp chatResponse
	err := postJSON(ctx, p.httpClient, p.baseURL+"/chat/completions", map[string]string{
		"Authorization": "Bearer " + p.config.APIKey,
	}, chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   p.config.maxTokens(req),
		Temperature: req.Temperature,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("perplexity API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from perplexity")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if resp.Model != "" {
		model = resp.Model
	}
	citations := resp.Citations
	if len(citations) == 0 {
		citations = extractURLs(content)
	}

	return &CompletionResponse{
		Content:    content,
		Citations:  citations,
		Model:      model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

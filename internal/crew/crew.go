package crew

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/newsverify/internal/llm"
	"github.com/ppiankov/newsverify/internal/metrics"
)

// TaskResult is the output of one task
type TaskResult struct {
	Task       string        `json:"task"`
	Agent      string        `json:"agent"`
	Role       string        `json:"role"`
	Output     string        `json:"output"`
	Citations  []string      `json:"citations,omitempty"`
	TokensUsed int           `json:"tokens_used"`
	Duration   time.Duration `json:"duration"`
}

// Report is everything the crew produced
type Report struct {
	Provider string       `json:"provider"`
	Tasks    []TaskResult `json:"tasks"`
	Decision Decision     `json:"decision"`
}

// Crew dispatches each task's prompt to a provider in order
type Crew struct {
	cfg         *Config
	provider    llm.Provider
	logger      *zap.Logger
	temperature float32
	progress    func(task TaskResult)
}

// Option customizes a Crew
type Option func(*Crew)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Crew) { c.logger = l }
}

// WithProgress is called after each task completes
func WithProgress(fn func(TaskResult)) Option {
	return func(c *Crew) { c.progress = fn }
}

// New creates a crew. provider is required.
func New(cfg *Config, provider llm.Provider, opts ...Option) (*Crew, error) {
	if provider == nil {
		return nil, errors.New("crew requires an LLM provider")
	}
	if cfg == nil {
		var err error
		if cfg, err = DefaultConfig(); err != nil {
			return nil, err
		}
	}
	c := &Crew{
		cfg:         cfg,
		provider:    provider,
		logger:      zap.NewNop(),
		temperature: 0.2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run executes every task. The last task's reply is parsed into the decision.
func (c *Crew) Run(ctx context.Context, in Inputs) (*Report, error) {
	report := &Report{Provider: c.provider.Name()}
	if len(c.cfg.Tasks) == 0 {
		return report, errors.New("crew has no tasks")
	}
	outputs := make(map[string]string, len(c.cfg.Tasks))

	for _, task := range c.cfg.Tasks {
		agent := c.cfg.Agents[task.Agent]
		log := c.logger.With(zap.String("task", task.Name), zap.String("agent", agent.Name))

		start := time.Now()
		resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
			System:      agent.SystemPrompt(),
			Prompt:      task.Prompt(in, outputs),
			Temperature: c.temperature,
		})
		if err != nil {
			metrics.AgentCalls.WithLabelValues(agent.Name, "error").Inc()
			log.Warn("task failed", zap.Error(err))
			return report, fmt.Errorf("task %s: %w", task.Name, err)
		}
		metrics.AgentCalls.WithLabelValues(agent.Name, "ok").Inc()
		metrics.AgentTokens.WithLabelValues(agent.Name).Add(float64(resp.TokensUsed))

		result := TaskResult{
			Task:       task.Name,
			Agent:      agent.Name,
			Role:       agent.Role,
			Output:     resp.Content,
			Citations:  resp.Citations,
			TokensUsed: resp.TokensUsed,
			Duration:   time.Since(start),
		}
		outputs[task.Name] = resp.Content
		report.Tasks = append(report.Tasks, result)

		log.Debug("task complete",
			zap.Int("tokens", resp.TokensUsed),
			zap.Duration("elapsed", result.Duration))
		if c.progress != nil {
			c.progress(result)
		}
	}

	final := report.Tasks[len(report.Tasks)-1]
	decision := ParseDecision(final.Output)
	report.Decision = decision.WithFactors(TaskFactors(outputs, decision.Classification, in.ContentQuality))
	return report, nil
}

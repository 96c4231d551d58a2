package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/newsverify/internal/cache"
	"github.com/ppiankov/newsverify/internal/crew"
	"github.com/ppiankov/newsverify/internal/llm"
	"github.com/ppiankov/newsverify/internal/model"
	"github.com/ppiankov/newsverify/internal/pipeline"
	"github.com/ppiankov/newsverify/internal/score"
	"github.com/ppiankov/newsverify/internal/validate"
)

var (
	crewURL       string
	crewText      string
	crewThreshold float64
	crewDetailed  bool
	crewJSON      bool
	crewTimeout   time.Duration
)

// crewCmd represents the crew command
var crewCmd = &cobra.Command{
	Use:   "crew",
	Short: "Run the multi-agent analysis on a URL or text",
	Long: `Crew hands the content to a team of agents, one model call each:
- content_extractor   cleans and structures the content
- fact_checker        checks the claims
- source_credibility  assesses where the content comes from
- final_decision      classifies it as FAKE NEWS, VERIFIED or INCONCLUSIVE

Example:
  newsverify crew --text "Scientists confirm ..."
  newsverify crew --url https://example.com/story --llm-provider perplexity --llm-model sonar`,
	Args: cobra.NoArgs,
	RunE: runCrew,
}

func init() {
	rootCmd.AddCommand(crewCmd)

	crewCmd.Flags().StringVar(&crewURL, "url", "", "article URL to analyze")
	crewCmd.Flags().StringVar(&crewText, "text", "", "text to analyze")
	crewCmd.Flags().Float64Var(&crewThreshold, "threshold", 0.7, "confidence threshold handed to the agents")
	crewCmd.Flags().BoolVar(&crewDetailed, "detailed", true, "ask the agents for a detailed analysis")
	crewCmd.Flags().BoolVar(&crewJSON, "json", false, "print the full report as JSON")
	crewCmd.Flags().DurationVar(&crewTimeout, "timeout", 5*time.Minute, "overall timeout")
	crewCmd.Flags().String("llm-provider", "", "LLM provider (openai, perplexity, anthropic, ollama)")
	crewCmd.Flags().String("llm-model", "", "LLM model name")
	crewCmd.MarkFlagsMutuallyExclusive("url", "text")
	crewCmd.MarkFlagsOneRequired("url", "text")

	_ = viper.BindPFlag("llm.provider", crewCmd.Flags().Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.model", crewCmd.Flags().Lookup("llm-model"))
}

func runCrew(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return fmt.Errorf("create LLM provider: %w", err)
	}
	if provider == nil {
		return fmt.Errorf("no LLM provider configured (use --llm-provider or llm.provider)")
	}
	c, err := crew.New(nil, provider,
		crew.WithLogger(logger),
		crew.WithProgress(func(r crew.TaskResult) {
			fmt.Fprintf(os.Stderr, "✓ %s (%s, %s)\n", r.Task, r.Role, r.Duration.Round(time.Millisecond))
		}))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), crewTimeout)
	defer cancel()

	in := crew.Inputs{
		ConfidenceThreshold: crewThreshold,
		DetailedAnalysis:    crewDetailed,
	}
	if crewURL != "" {
		u, err := validate.NormalizeURL(crewURL)
		if err != nil {
			return err
		}
		fetcher := pipeline.NewFetcher(cfg.HTTP, logger)
		pages := cache.NewPageCache(cache.New(cfg.Cache, nil), cfg.Cache.TTL)
		content, err := pipeline.NewResolver(fetcher, pages, logger).Resolve(ctx, u)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", u, err)
		}
		in.InputType = "url"
		in.Content = fmt.Sprintf("URL: %s\nTitle: %s\n\n%s", content.URL, content.Title, content.Body)
		in.ContentQuality = contentQuality(cfg.Score, content.Body)
	} else {
		text, err := validate.ValidateText(crewText)
		if err != nil {
			return err
		}
		in.InputType = "text"
		in.Content = text
		in.ContentQuality = contentQuality(cfg.Score, text)
	}

	fmt.Fprintf(os.Stderr, "Running crew with %s\n\n", provider.Name())
	report, err := c.Run(ctx, in)
	if err != nil {
		return fmt.Errorf("crew: %w", err)
	}

	if crewJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	d := report.Decision
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Classification:  %s\n", d.Classification)
	fmt.Fprintf(out, "  Confidence:      %.0f%%\n", d.Confidence*100)
	fmt.Fprintf(out, "  Risk level:      %s\n", d.RiskLevel)
	if d.Summary != "" {
		fmt.Fprintf(out, "  Summary:         %s\n", d.Summary)
	}
	if len(d.Factors) > 0 {
		fmt.Fprintf(out, "  Stated:          %.0f%%\n", d.ModelConfidence*100)
		for name, v := range d.Factors {
			fmt.Fprintf(out, "  %-16s %.2f\n", name+":", v)
		}
	}
	fmt.Fprintln(out)
	if verbose {
		for _, t := range report.Tasks {
			fmt.Fprintf(out, "## %s\n%s\n\n", t.Task, t.Output)
		}
	}
	return nil
}

// contentQuality is the heuristic text quality scaled to 0..1
func contentQuality(cfg model.ScoreConfig, text string) float64 {
	scores := score.NewScorer(&cfg).Score("", text)
	if scores.TextQuality == nil {
		return 0
	}
	return float64(*scores.TextQuality) / 10
}

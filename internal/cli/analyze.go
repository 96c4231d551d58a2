package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/newsverify/internal/cache"
	"github.com/ppiankov/newsverify/internal/model"
	"github.com/ppiankov/newsverify/internal/pipeline"
)

var (
	analyzeURL     string
	analyzeText    string
	analyzeOut     string
	analyzeTimeout time.Duration
	noCache        bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a single URL or text and print the JSON result",
	Long: `Analyze runs the same pipeline as the web service once:
- Fetch the page and extract its readable content (URL input)
- Score domain credibility and text quality
- Ask the verification model for an assessment (when configured)

Text is read from stdin when --text is "-".

Example:
  newsverify analyze --url https://www.bbc.com/news/some-article
  newsverify analyze --text "Scientists confirm ..." --out result.json
  cat article.txt | newsverify analyze --text -`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeURL, "url", "", "article URL to analyze")
	analyzeCmd.Flags().StringVar(&analyzeText, "text", "", "text to analyze (- reads stdin)")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "write JSON to this path instead of stdout")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 2*time.Minute, "overall timeout")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	analyzeCmd.MarkFlagsMutuallyExclusive("url", "text")
	analyzeCmd.MarkFlagsOneRequired("url", "text")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	req, err := analysisRequest(cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	p := pipeline.NewPipeline(cfg, cache.New(cfg.Cache, nil), pipeline.WithLogger(logger))
	if verbose && !p.VerifierConfigured() {
		fmt.Fprintln(os.Stderr, "PERPLEXITY_API_KEY not set, skipping verification")
	}

	resp, err := p.Analyze(ctx, req)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if analyzeOut == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := os.WriteFile(analyzeOut, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", analyzeOut)
	return nil
}

// analysisRequest builds the request from the flags
func analysisRequest(stdin io.Reader) (model.AnalysisRequest, error) {
	if analyzeURL != "" {
		return model.AnalysisRequest{Kind: model.KindURL, RawContent: analyzeURL}, nil
	}
	text := analyzeText
	if text == "-" {
		data, err := io.ReadAll(io.LimitReader(stdin, 1<<20))
		if err != nil {
			return model.AnalysisRequest{}, fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return model.AnalysisRequest{}, errors.New("no text to analyze")
	}
	return model.AnalysisRequest{Kind: model.KindText, RawContent: text}, nil
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/newsverify/internal/cache"
	"github.com/ppiankov/newsverify/internal/pipeline"
	"github.com/ppiankov/newsverify/internal/worker"
)

var (
	concurrency  int
	batchOut     string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze multiple URLs from a file in parallel",
	Long: `Batch analyzes every URL in a file concurrently:
- Read URLs from the input file (one per line, # starts a comment)
- Analyze them with a pool of workers, politely per target host
- Write one JSON result per line, in input order

Example:
  newsverify batch urls.txt
  newsverify batch urls.txt --concurrency 8 --out results.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&batchOut, "out", "", "write JSON lines to this path instead of stdout")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
}

// batchLine is one line of batch output
type batchLine struct {
	URL    string `json:"url"`
	Error  string `json:"error,omitempty"`
	Result any    `json:"result,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) (err error) {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if cmd.Flags().Changed("concurrency") || cfg.Concurrency.Workers <= 0 {
		cfg.Concurrency.Workers = concurrency
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	urls, err := worker.ReadURLsFromFile(file)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  URLs:         %d\n", len(urls))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	var out io.Writer = cmd.OutOrStdout()
	if batchOut != "" {
		f, createErr := os.Create(batchOut)
		if createErr != nil {
			return fmt.Errorf("create output: %w", createErr)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output: %w", closeErr)
			}
		}()
		out = f
	}

	p := pipeline.NewPipeline(cfg, cache.New(cfg.Cache, nil), pipeline.WithLogger(logger))
	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)
	processor.OnProgress(func(done, total int) {
		fmt.Fprintf(os.Stderr, "\r⚙️  %d/%d analyzed", done, total)
	})

	results := processor.ProcessURLs(ctx, urls)
	fmt.Fprintf(os.Stderr, "\n\n")

	enc := json.NewEncoder(out)
	successCount, failureCount := 0, 0
	for _, result := range results {
		line := batchLine{URL: result.URL}
		switch {
		case result.Error != nil:
			line.Error = result.Error.Error()
		case result.Response.Failed():
			line.Error = result.Response.Error
			line.Result = result.Response
		default:
			line.Result = result.Response
		}
		if line.Error != "" {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %s\n", result.URL, line.Error)
		} else {
			successCount++
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d URLs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "\n")
	return nil
}

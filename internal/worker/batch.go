package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/newsverify/internal/model"
)

// Analyzer runs one analysis request
type Analyzer interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error)
}

// AnalysisJob analyzes a single URL
type AnalysisJob struct {
	URL      string
	Analyzer Analyzer
}

// Execute executes the analysis job
func (j *AnalysisJob) Execute(ctx context.Context) Result {
	resp, err := j.Analyzer.Analyze(ctx, model.AnalysisRequest{Kind: model.KindURL, RawContent: j.URL})
	if err != nil {
		return &AnalysisResult{URL: j.URL, Error: err}
	}
	return &AnalysisResult{URL: j.URL, Response: resp}
}

// AnalysisResult represents the result of an analysis job
type AnalysisResult struct {
	URL      string
	Response *model.AnalysisResponse
	Error    error
}

// GetError returns the error from the analysis result
func (r *AnalysisResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes multiple URLs concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	progress    ProgressFunc
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// OnProgress registers a callback invoked as URLs complete
func (b *BatchProcessor) OnProgress(fn ProgressFunc) {
	b.progress = fn
}

// ProcessURLs analyzes URLs concurrently. Results keep the input order; URLs
// skipped because ctx ended carry the context error.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*AnalysisResult {
	if len(urls) == 0 {
		return []*AnalysisResult{}
	}

	jobs := make([]Job, len(urls))
	for i, u := range urls {
		jobs[i] = &AnalysisJob{URL: u, Analyzer: b.analyzer}
	}

	pool := NewPool(b.concurrency)
	pool.OnProgress(b.progress)
	results := pool.Run(ctx, jobs)

	out := make([]*AnalysisResult, len(results))
	for i, r := range results {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("not processed")
			}
			out[i] = &AnalysisResult{URL: urls[i], Error: err}
			continue
		}
		out[i] = r.(*AnalysisResult)
	}

	return out
}

// ProcessFile reads URLs from a file and analyzes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalysisResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads URLs from a file (one per line)
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}

package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// ProgressFunc is called after each job finishes with the number done so far
type ProgressFunc func(done, total int)

// Pool runs jobs on a fixed number of workers
type Pool struct {
	workers  int
	progress ProgressFunc
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// OnProgress registers a progress callback. It is called from worker goroutines
// but never concurrently.
func (p *Pool) OnProgress(fn ProgressFunc) {
	p.progress = fn
}

// Run executes all jobs and returns their results in submission order.
// Jobs not started before ctx ends are left with a nil result.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	indexes := make(chan int)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)

	workers := p.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = jobs[i].Execute(ctx)

				if p.progress != nil {
					mu.Lock()
					done++
					p.progress(done, len(jobs))
					mu.Unlock()
				}
			}
		}()
	}

feed:
	for i := range jobs {
		select {
		case indexes <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	return results
}

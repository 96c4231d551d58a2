package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// mockResult implements Result
type mockResult struct {
	id  int
	err error
}

func (r *mockResult) GetError() error {
	return r.err
}

// mockJob implements Job
type mockJob struct {
	id        int
	duration  time.Duration
	shouldErr bool
	executed  *int32
	running   *int32
	peak      *int32
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.running != nil {
		n := atomic.AddInt32(j.running, 1)
		defer atomic.AddInt32(j.running, -1)
		for {
			old := atomic.LoadInt32(j.peak)
			if n <= old || atomic.CompareAndSwapInt32(j.peak, old, n) {
				break
			}
		}
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &mockResult{id: j.id, err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &mockResult{id: j.id, err: errors.New("job error")}
	}
	return &mockResult{id: j.id}
}

func TestNewPool(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{5, 5},
		{0, 1},
		{-1, 1},
	}
	for _, tt := range tests {
		if got := NewPool(tt.in).workers; got != tt.want {
			t.Errorf("NewPool(%d).workers = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPool_RunOrdered(t *testing.T) {
	var executed int32
	jobs := make([]Job, 20)
	for i := range jobs {
		// Later jobs finish first
		jobs[i] = &mockJob{id: i, duration: time.Duration(20-i) * time.Millisecond, executed: &executed}
	}

	results := NewPool(4).Run(context.Background(), jobs)

	if len(results) != len(jobs) {
		t.Fatalf("expected %d results, got %d", len(jobs), len(results))
	}
	for i, r := range results {
		if got := r.(*mockResult).id; got != i {
			t.Errorf("result %d belongs to job %d", i, got)
		}
	}
	if executed != 20 {
		t.Errorf("expected 20 executions, got %d", executed)
	}
}

func TestPool_ManyJobsSmallPool(t *testing.T) {
	jobs := make([]Job, 500)
	for i := range jobs {
		jobs[i] = &mockJob{id: i}
	}

	done := make(chan []Result)
	go func() { done <- NewPool(2).Run(context.Background(), jobs) }()

	select {
	case results := <-done:
		if len(results) != 500 {
			t.Errorf("expected 500 results, got %d", len(results))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not finish")
	}
}

func TestPool_Concurrency(t *testing.T) {
	var running, peak int32
	jobs := make([]Job, 12)
	for i := range jobs {
		jobs[i] = &mockJob{id: i, duration: 20 * time.Millisecond, running: &running, peak: &peak}
	}

	NewPool(3).Run(context.Background(), jobs)

	if peak > 3 {
		t.Errorf("expected at most 3 concurrent jobs, saw %d", peak)
	}
	if peak < 2 {
		t.Errorf("expected jobs to overlap, peak was %d", peak)
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	jobs := []Job{
		&mockJob{id: 0},
		&mockJob{id: 1, shouldErr: true},
		&mockJob{id: 2},
	}

	results := NewPool(2).Run(context.Background(), jobs)

	if results[0].GetError() != nil || results[2].GetError() != nil {
		t.Error("expected successful jobs to have no error")
	}
	if results[1].GetError() == nil {
		t.Error("expected failing job to report its error")
	}
}

func TestPool_Progress(t *testing.T) {
	jobs := make([]Job, 7)
	for i := range jobs {
		jobs[i] = &mockJob{id: i}
	}

	var calls, last int
	p := NewPool(3)
	p.OnProgress(func(done, total int) {
		calls++
		last = done
		if total != 7 {
			t.Errorf("expected total 7, got %d", total)
		}
	})
	p.Run(context.Background(), jobs)

	if calls != 7 || last != 7 {
		t.Errorf("expected 7 progress calls ending at 7, got %d calls ending at %d", calls, last)
	}
}

func TestPool_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var executed int32
	jobs := make([]Job, 10)
	for i := range jobs {
		jobs[i] = &mockJob{id: i, executed: &executed}
	}

	results := NewPool(1).Run(ctx, jobs)

	if len(results) != 10 {
		t.Fatalf("expected 10 result slots, got %d", len(results))
	}
	nilCount := 0
	for _, r := range results {
		if r == nil {
			nilCount++
		}
	}
	if int(executed)+nilCount != 10 {
		t.Errorf("executed %d and skipped %d, expected them to add up to 10", executed, nilCount)
	}
}

func TestPool_Empty(t *testing.T) {
	if results := NewPool(2).Run(context.Background(), nil); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

package parallel

import (
	"context"
	"sync"
	"time"
)

// JobResult is the outcome of one submitted job.
type JobResult struct {
	// Index is the job's submission order, starting at 0.
	Index    int
	Error    error
	Duration time.Duration
}

// WorkerPool runs submitted jobs with at most maxWorkers in flight.
type WorkerPool struct {
	ctx context.Context
	sem chan struct{}
	wg  sync.WaitGroup

	mu      sync.Mutex
	results []JobResult
}

// NewWorkerPool creates a pool whose jobs run under ctx.
// A maxWorkers of 0 or less means no limit.
func NewWorkerPool(ctx context.Context, maxWorkers int) *WorkerPool {
	p := &WorkerPool{ctx: ctx}
	if maxWorkers > 0 {
		p.sem = make(chan struct{}, maxWorkers)
	}
	return p
}

// Submit queues fn and returns its index. A job that is still waiting for a
// slot when ctx is cancelled does not run; its result carries ctx.Err().
func (p *WorkerPool) Submit(fn func(ctx context.Context) error) int {
	p.mu.Lock()
	idx := len(p.results)
	p.results = append(p.results, JobResult{Index: idx})
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if p.sem != nil {
			select {
			case p.sem <- struct{}{}:
				defer func() { <-p.sem }()
			case <-p.ctx.Done():
				p.record(idx, p.ctx.Err(), 0)
				return
			}
		}
		if err := p.ctx.Err(); err != nil {
			p.record(idx, err, 0)
			return
		}

		start := time.Now()
		err := fn(p.ctx)
		p.record(idx, err, time.Since(start))
	}()
	return idx
}

func (p *WorkerPool) record(idx int, err error, took time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[idx].Error = err
	p.results[idx].Duration = took
}

// Wait blocks until every submitted job has finished and returns their
// results in submission order.
func (p *WorkerPool) Wait() []JobResult {
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()

	results := make([]JobResult, len(p.results))
	copy(results, p.results)
	return results
}

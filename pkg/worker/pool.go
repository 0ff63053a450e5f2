package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Job is a unit of CPU- or process-bound work that must not run on a
// request goroutine.
type Job func(ctx context.Context) error

type task struct {
	ctx  context.Context
	job  Job
	done chan error
}

// Pool runs submitted jobs on a fixed number of worker goroutines. Callers
// block in Submit until their job completes, so the pool bounds how many
// jobs execute at once without queueing unfinished work behind a response.
type Pool struct {
	jobs       chan task
	numWorkers int

	mu      sync.Mutex
	started bool
	ctx     context.Context
	wg      sync.WaitGroup
}

func NewPool(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Pool{
		jobs:       make(chan task),
		numWorkers: numWorkers,
	}
}

// Start launches the workers. They exit when ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	p.ctx = ctx

	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go func(workerId int) {
			defer p.wg.Done()
			for {
				select {
				case t := <-p.jobs:
					t.done <- t.job(t.ctx)
				case <-ctx.Done():
					return
				}
			}
		}(i)
	}
}

// Submit hands job to a worker and blocks until it finishes or ctx is
// cancelled. A cancelled ctx abandons the wait; the job itself observes the
// same ctx and is expected to stop.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	t := task{ctx: ctx, job: job, done: make(chan error, 1)}

	p.mu.Lock()
	var poolDone <-chan struct{}
	if p.ctx != nil {
		poolDone = p.ctx.Done()
	}
	p.mu.Unlock()

	select {
	case p.jobs <- t:
	case <-ctx.Done():
		return ctx.Err()
	case <-poolDone:
		return context.Canceled
	}

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		zerolog.Ctx(ctx).Warn().Msg("abandoning wait for cancelled job")
		return ctx.Err()
	}
}

// Wait blocks until all workers have exited after their context was
// cancelled.
func (p *Pool) Wait() {
	p.wg.Wait()
}

package engine

import (
	"context"
	"errors"
	"sync"
)

// Pool bounds concurrent model inference. Background removal is CPU and
// accelerator bound, so request handlers hand the work to a fixed set of
// workers instead of running it inline; everything else a request does stays
// on the normal scheduler.
type Pool struct {
	workers int
	jobs    chan poolJob
	stop    chan struct{}
	wg      sync.WaitGroup
}

type poolJob struct {
	run  func()
	done chan struct{}
}

func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers: workers,
		jobs:    make(chan poolJob),
		stop:    make(chan struct{}),
	}
}

// Start launches the worker loop.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

// Stop gracefully shuts down. In-flight jobs finish; queued submitters get
// an error.
func (p *Pool) Stop() {
	close(p.stop)
	p.wg.Wait()
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			return
		case job := <-p.jobs:
			job.run()
			close(job.done)
		}
	}
}

// Do runs fn on a pool worker and waits for it to finish. Submission and
// waiting both respect ctx; a caller that gives up after submission leaves
// fn to complete on the worker.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	job := poolJob{run: fn, done: make(chan struct{})}
	select {
	case p.jobs <- job:
	case <-p.stop:
		return errors.New("inference pool stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-job.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

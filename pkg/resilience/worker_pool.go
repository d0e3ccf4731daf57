package resilience

import (
	"context"
	"errors"
	"sync"
)

var ErrPoolClosed = errors.New("worker pool is closed")

// PoolSize bounds fan-out to the active node count or a fixed cap,
// whichever is smaller, so concurrent chunk I/O never piles more work on
// the cluster than it has nodes to absorb.
func PoolSize(activeNodes, cap int) int {
	if cap <= 0 {
		cap = 1
	}
	if activeNodes <= 0 {
		return 1
	}
	if activeNodes < cap {
		return activeNodes
	}
	return cap
}

// WorkerPool runs submitted jobs on a fixed set of goroutines. Chunk
// fetches and repair copies for distinct chunks go through one pool per
// operation.
type WorkerPool struct {
	jobs chan func()
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewWorkerPool starts workers goroutines draining a queue of queueSize.
func NewWorkerPool(workers, queueSize int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < workers {
		queueSize = workers
	}

	p := &WorkerPool{jobs: make(chan func(), queueSize)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		job()
	}
}

// Submit enqueues a job, blocking while the queue is full. It returns
// ctx.Err() if the caller gives up first and ErrPoolClosed after Close.
func (p *WorkerPool) Submit(ctx context.Context, job func()) error {
	if job == nil {
		return nil
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrPoolClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.jobs <- job:
		return nil
	}
}

// Close stops intake. Queued jobs still run; use Wait to drain.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.jobs)
}

// Wait blocks until all workers have exited. Call Close first.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

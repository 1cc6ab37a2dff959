package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var (
	ErrWorkerPoolClosed = errors.New("worker pool is closed")
	ErrWorkerPoolFull   = errors.New("worker pool queue is full")
)

// WorkerPool runs jobs on a fixed set of goroutines. TryDispatch never
// blocks, which makes it safe to call from transport callbacks that must
// return quickly.
type WorkerPool struct {
	jobs    chan func()
	closed  bool
	mu      sync.RWMutex
	once    sync.Once
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

func NewWorkerPool(workers, queueSize int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers
	}

	p := &WorkerPool{
		jobs: make(chan func(), queueSize),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
			}
		}()
	}

	return p
}

// Submit queues job, waiting for room until ctx is done.
func (p *WorkerPool) Submit(ctx context.Context, job func()) error {
	if job == nil {
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrWorkerPoolClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.jobs <- job:
		return nil
	}
}

// TryDispatch queues job only if there is room right now.
func (p *WorkerPool) TryDispatch(job func()) error {
	if job == nil {
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrWorkerPoolClosed
	}

	select {
	case p.jobs <- job:
		return nil
	default:
		p.dropped.Add(1)
		return ErrWorkerPoolFull
	}
}

// Dropped returns how many jobs TryDispatch rejected for lack of room.
func (p *WorkerPool) Dropped() uint64 {
	return p.dropped.Load()
}

// Close stops accepting jobs; queued jobs still run.
func (p *WorkerPool) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()
	})
}

func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

package worker

import (
	"context"
	"errors"
	"sync"
)

// WorkerPool owns a fixed set of workers which concurrently drain a
// shared channel of ordinals. The embedded WaitGroup is controlled
// by the pool itself; consumers wait via the pool's Wait method.
type WorkerPool struct {
	workers []Worker
	wg      sync.WaitGroup
	started bool
}

// NewWorkerPool creates a new WorkerPool struct
// and initialises the 'workers' slice.
func NewWorkerPool() *WorkerPool {
	return &WorkerPool{workers: make([]Worker, 0)}
}

// PushWorker inserts the provided workers in to the pool. Workers
// cannot be added once the pool has started.
func (pool *WorkerPool) PushWorker(workers ...Worker) error {
	if pool.started {
		return errors.New("cannot push worker to already started worker pool")
	}

	pool.workers = append(pool.workers, workers...)
	return nil
}

// Start spawns one goroutine per worker, each draining the provided
// feed channel. Start does NOT block; callers should use Wait to
// block until the feed is exhausted (or the context cancelled) and
// all workers have returned.
func (pool *WorkerPool) Start(ctx context.Context, feed <-chan int) error {
	if pool.started {
		return errors.New("cannot start an already started worker pool")
	}

	pool.started = true
	for _, worker := range pool.workers {
		pool.wg.Add(1)
		go func(w Worker) {
			defer pool.wg.Done()
			w.Start(ctx, feed)
		}(worker)
	}

	return nil
}

// Wait blocks until every worker in a started pool has finished.
func (pool *WorkerPool) Wait() {
	if !pool.started {
		return
	}

	pool.wg.Wait()
}

// Size returns the number of workers attached to this pool.
func (pool *WorkerPool) Size() int {
	return len(pool.workers)
}

package service

import (
	"context"
	"errors"
	"sync"

	"github.com/torisu/jimaku/internal/infrastructure/logger"
)

// ErrRunnerSaturated is returned when the task queue is full.
var ErrRunnerSaturated = errors.New("runner queue full")

// Runner is a bounded worker pool for fire-and-forget pipeline runs. A panic
// in one task is recovered and logged so it never takes down a worker or a
// sibling job.
type Runner struct {
	tasks   chan func(ctx context.Context)
	workers int
	wg      sync.WaitGroup
}

func NewRunner(workers, queueSize int) *Runner {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Runner{
		tasks:   make(chan func(ctx context.Context), queueSize),
		workers: workers,
	}
}

func (r *Runner) Start(ctx context.Context) {
	for i := range r.workers {
		r.wg.Add(1)
		go r.runWorker(ctx, i)
	}
	logger.Info.Printf("started %d pipeline workers", r.workers)
}

// Submit enqueues a task without waiting for it to run.
func (r *Runner) Submit(task func(ctx context.Context)) error {
	select {
	case r.tasks <- task:
		return nil
	default:
		return ErrRunnerSaturated
	}
}

// Wait blocks until all workers have exited. Workers stop once the start
// context is cancelled; in-flight tasks run to completion.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) runWorker(ctx context.Context, id int) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			logger.Info.Printf("pipeline worker %d shutting down", id)
			return
		case task := <-r.tasks:
			r.runTask(ctx, task)
		}
	}
}

func (r *Runner) runTask(ctx context.Context, task func(ctx context.Context)) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error.Printf("pipeline task panicked: %v", rec)
		}
	}()
	task(ctx)
}

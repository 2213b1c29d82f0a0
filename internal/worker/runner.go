// Package worker runs fire-and-forget background tasks, e.g. rendering the
// spoken confirmation after an invoice was dispatched. Tasks never block the
// turn's response and are drained on shutdown.
package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Task is one unit of background work.
type Task struct {
	Name string
	Run  func(ctx context.Context)
}

// Runner executes submitted tasks on a fixed set of workers.
type Runner struct {
	tasks  chan Task
	logger *zap.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
	cancel   context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewRunner starts the worker goroutines.
func NewRunner(workers, queueSize int, logger *zap.Logger) *Runner {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		tasks:  make(chan Task, queueSize),
		logger: logger,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.loop(ctx)
	}
	return r
}

func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()
	for task := range r.tasks {
		r.logger.Debug("Running background task", zap.String("name", task.Name))
		task.Run(ctx)
	}
}

// Submit enqueues a task. When the queue is full or the runner was stopped
// the task is dropped with a warning rather than blocking the caller's turn.
func (r *Runner) Submit(name string, run func(ctx context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.logger.Warn("Runner stopped, dropping task", zap.String("name", name))
		return
	}
	select {
	case r.tasks <- Task{Name: name, Run: run}:
	default:
		r.logger.Warn("Background queue full, dropping task", zap.String("name", name))
	}
}

// Stop drains the queue, cancels running tasks' context and waits for the
// workers to exit. Submitting after Stop is a no-op.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.tasks)
		r.mu.Unlock()
		r.wg.Wait()
		r.cancel()
	})
}

// Package worker runs the single dispatch loop that executes queued tasks in
// order.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/okian/ranks/internal/adapters/mq/queue"
	"github.com/okian/ranks/pkg/logger"
	"github.com/okian/ranks/pkg/metrics"
)

// Queue defines how the worker receives tasks.
type Queue interface {
	Dequeue() <-chan queue.Task
}

// Worker executes tasks one at a time. Exactly one goroutine runs Run.
type Worker struct {
	queue Queue
	name  string

	processed atomic.Int64
	panics    atomic.Int64

	done chan struct{}

	logger logger.Logger
}

// New creates a worker reading from q.
func New(q Queue, opts ...Option) *Worker {
	w := &Worker{
		queue:  q,
		name:   "dispatch",
		done:   make(chan struct{}),
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run executes tasks until the queue channel closes or ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-tasks:
			if !ok {
				return
			}
			w.execute(ctx, t)
		}
	}
}

// Shutdown waits for Run to return. The caller closes the queue first so the
// loop drains what is left.
func (w *Worker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns how many tasks ran.
func (w *Worker) Processed() int64 { return w.processed.Load() }

// Panics returns how many tasks panicked.
func (w *Worker) Panics() int64 { return w.panics.Load() }

func (w *Worker) execute(ctx context.Context, t queue.Task) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			w.panics.Add(1)
			metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(ctx, "task panicked",
				logger.String("task", t.Name),
				logger.Any("panic", r),
			)
		}
		w.processed.Add(1)
		metrics.RecordDispatchTaskLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()
	if t.Run != nil {
		t.Run(ctx)
	}
}

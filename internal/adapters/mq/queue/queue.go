// Package queue holds the bounded task queue that feeds the dispatch loop.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/ranks/pkg/metrics"
)

const defaultQueueCapacity = 4096

// Task is one unit of work for the dispatch loop.
type Task struct {
	Name     string
	Run      func(ctx context.Context)
	Enqueued time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a task. It fails with ErrQueueFull or ErrClosed.
	Enqueue(ctx context.Context, t Task) error

	// Dequeue returns the channel tasks arrive on. It is closed once the
	// queue is closed and drained.
	Dequeue() <-chan Task

	Len() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	tasks    chan Task
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a queue with the given options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.tasks = make(chan Task, q.capacity)

	metrics.UpdateDispatchQueueCapacity(q.capacity)
	metrics.UpdateDispatchQueueSize(0)
	return q
}

// Enqueue adds a task without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordDispatchRejected()
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.Enqueued.IsZero() {
		t.Enqueued = time.Now()
	}

	select {
	case q.tasks <- t:
		metrics.UpdateDispatchQueueSize(len(q.tasks))
		return nil
	default:
		metrics.RecordDispatchRejected()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrQueueFull
	}
}

// Dequeue returns the task channel.
func (q *InMemoryQueue) Dequeue() <-chan Task {
	return q.tasks
}

// Len returns the number of waiting tasks.
func (q *InMemoryQueue) Len() int {
	size := len(q.tasks)
	metrics.UpdateDispatchQueueSize(size)
	return size
}

// Cap returns the queue capacity.
func (q *InMemoryQueue) Cap() int { return q.capacity }

// Close stops accepting tasks. Tasks already queued are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.tasks)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

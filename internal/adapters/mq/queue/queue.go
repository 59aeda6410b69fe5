// Package queue hands finished round reports from the game loop to the
// background recorders.
//
// The game loop must never block on bookkeeping, so Enqueue is always
// non-blocking and drops the report when the buffer is full.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 256
	defaultQueueName     = "reports"
)

// Report is the payload type flowing through the queue.
type Report = model.RoundReport

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a report to the queue.
	// Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, r Report) bool

	// Dequeue returns a channel that will receive reports as they become available.
	// The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Report

	// Len returns the current number of queued reports.
	Len(ctx context.Context) int

	// Close stops intake. Reports already buffered are still delivered.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	reports  chan Report
	capacity int
	name     string
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		name:     defaultQueueName,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.reports = make(chan Report, q.capacity)

	metrics.UpdateQueueCapacity(q.name, q.capacity)
	metrics.UpdateQueueSize(q.name, 0)
	metrics.UpdateQueueUtilization(q.name, 0.0)

	return q
}

// Name is the metrics label of the queue.
func (q *InMemoryQueue) Name() string { return q.name }

// Enqueue adds a report to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Report) bool { //nolint:gocritic // hugeParam: Report must be passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.reject("closed")
		return false
	}

	select {
	case <-ctx.Done():
		q.reject("context_cancelled")
		return false
	case q.reports <- r:
		metrics.RecordQueueEnqueue(q.name)
		q.observe()
		return true
	default:
		q.reject("queue_full")
		return false
	}
}

func (q *InMemoryQueue) reject(reason string) {
	metrics.RecordQueueEnqueueError(q.name)
	metrics.RecordErrorByComponent("queue", reason)
}

func (q *InMemoryQueue) observe() {
	size := len(q.reports)
	metrics.UpdateQueueSize(q.name, size)
	metrics.UpdateQueueUtilization(q.name, float64(size)/float64(q.capacity))
}

// Dequeue returns a channel that will receive reports as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Report {
	out := make(chan Report)
	go func() {
		defer close(out)
		for r := range q.reports {
			select {
			case out <- r:
				metrics.RecordQueueDequeue(q.name)
				q.observe()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued reports.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	q.observe()
	return len(q.reports)
}

// Close stops intake and lets consumers drain what is left.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.reports)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Package queue provides a generic, thread-safe, unbounded FIFO queue with a
// blocking, context-aware Pop. It decouples producers from consumers: Push
// never blocks, Pop suspends the caller until an item arrives or the context
// is cancelled.
//
// Statistics are always collected for observability.
package queue

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ilpomo/open-core/errors"
)

// Stats is a point-in-time snapshot of queue activity.
type Stats struct {
	Pushed    int64 // items accepted by Push
	Popped    int64 // items handed out by Pop
	Discarded int64 // items thrown away by Clear
}

// Queue is an unbounded FIFO queue of T. The zero value is not usable;
// construct with New.
//
// Concurrent pushers and poppers are supported. Each item is delivered to
// exactly one popper, in push order.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool

	wake chan struct{} // capacity 1, coalesced push notifications
	done chan struct{} // closed when the queue is closed

	pushed    atomic.Int64
	popped    atomic.Int64
	discarded atomic.Int64
}

// New returns an empty open queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Push appends an item. It never blocks; the queue grows without bound.
// Pushing to a closed queue fails.
func (q *Queue[T]) Push(item T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errors.WrapInvalid(errors.ErrQueueClosed, "Queue", "Push", "append")
	}
	q.items = append(q.items, item)
	q.mu.Unlock()

	q.pushed.Add(1)
	q.notify()
	return nil
}

// notify coalesces wake-up tokens: one pending token is enough, waiters
// re-check the queue and re-signal while items remain.
func (q *Queue[T]) notify() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest item, suspending the caller until one is
// available. It returns the context error on cancellation and ErrQueueClosed
// once the queue is closed.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items[0] = zero // release for GC
			q.items = q.items[1:]
			remaining := len(q.items)
			q.mu.Unlock()

			q.popped.Add(1)
			if remaining > 0 {
				q.notify()
			}
			return item, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return zero, errors.WrapInvalid(errors.ErrQueueClosed, "Queue", "Pop", "dequeue")
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-q.done:
			// Loop once more to drain any item racing with Close.
		case <-q.wake:
		}
	}
}

// TryPop removes and returns the oldest item without blocking.
func (q *Queue[T]) TryPop() (T, bool) {
	var zero T
	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	remaining := len(q.items)
	q.mu.Unlock()

	q.popped.Add(1)
	if remaining > 0 {
		q.notify()
	}
	return item, true
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear discards all queued items and returns how many were thrown away.
// The queue stays usable.
func (q *Queue[T]) Clear() int {
	q.mu.Lock()
	n := len(q.items)
	q.items = nil
	q.mu.Unlock()

	q.discarded.Add(int64(n))
	return n
}

// Close marks the queue closed: Push fails, blocked Pop calls drain whatever
// is left and then fail with ErrQueueClosed. Close is idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	close(q.done)
}

// Stats returns a snapshot of queue activity.
func (q *Queue[T]) Stats() Stats {
	return Stats{
		Pushed:    q.pushed.Load(),
		Popped:    q.popped.Load(),
		Discarded: q.discarded.Load(),
	}
}

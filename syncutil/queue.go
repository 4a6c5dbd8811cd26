// Package syncutil provides the thread-coordination building blocks used
// around the transport layer: a blocking FIFO queue with optional timeout
// and a manual-reset event. Both are independent of the transport itself.
package syncutil

import (
	"errors"
	"sync"
	"time"

	"github.com/eapache/queue"
)

// ErrTimeout indicates a wait elapsed before the condition was satisfied.
var ErrTimeout = errors.New("timed out")

// Queue is a thread-safe FIFO queue. Pop blocks while the queue is empty
// until an element is pushed or, in the timeout variant, until the deadline
// passes.
type Queue[T any] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items *queue.Queue
}

// NewQueue initializes an empty queue.
func NewQueue[T any]() *Queue[T] {
	q := &Queue[T]{items: queue.New()}
	q.cond = sync.NewCond(&q.mu)

	return q
}

// Push inserts an element at the end of the queue, waking one blocked Pop.
func (q *Queue[T]) Push(v T) {
	q.mu.Lock()
	q.items.Add(v)
	q.mu.Unlock()

	q.cond.Signal()
}

// Pop removes and returns the element at the front of the queue, blocking
// while the queue is empty.
func (q *Queue[T]) Pop() T {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.items.Length() == 0 {
		q.cond.Wait()
	}

	return q.remove()
}

// PopTimeout removes and returns the element at the front of the queue,
// blocking at most d. Returns ErrTimeout if the queue is still empty when
// the deadline passes.
func (q *Queue[T]) PopTimeout(d time.Duration) (T, error) {
	var zero T
	deadline := time.Now().Add(d)

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.items.Length() == 0 {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return zero, ErrTimeout
		}

		// Wake ourselves at the deadline; the loop re-checks, so both
		// spurious wakeups and the deliberate one are harmless.
		timer := time.AfterFunc(remaining, q.cond.Broadcast)
		q.cond.Wait()
		timer.Stop()
	}

	return q.remove(), nil
}

// Len returns the current number of elements in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.items.Length()
}

// Empty reports whether the queue contains no elements.
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Clear removes all elements.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = queue.New()
}

// remove pops the front element. Caller must hold the lock and have checked
// the queue is non-empty.
func (q *Queue[T]) remove() T {
	v, _ := q.items.Remove().(T)

	return v
}

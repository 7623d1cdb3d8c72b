// Package queue implements a blocking multi-producer/multi-consumer FIFO.
//
// A single mutex guards the underlying deque and a condition variable signals
// "non-empty or closed". There is no lock-free path: contention is bounded by
// the number of consumers, which in this module is the size of a task pool.
//
// Shutdown wakes every blocked consumer. Pushing after shutdown is still
// legal; consumers keep draining until the queue is both closed and empty.
// Callers that need to reject work after shutdown check IsShutdown themselves.
package queue

import (
	"errors"
	"sync"
	"time"

	"github.com/eapache/queue"
)

var (
	// ErrClosed is returned by TryPopFor when the queue is shut down and empty.
	ErrClosed = errors.New("queue is closed")

	// ErrTimeout is returned by TryPopFor when no item arrived in time.
	ErrTimeout = errors.New("queue pop timed out")
)

type Queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  *queue.Queue
	closed bool
}

func New[T any]() *Queue[T] {
	q := &Queue[T]{items: queue.New()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends item and wakes one waiter.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items.Add(item)
	q.mu.Unlock()
	q.cond.Signal()
}

// PushBulk appends items under a single lock acquisition and wakes one waiter
// per item.
func (q *Queue[T]) PushBulk(items ...T) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	for _, item := range items {
		q.items.Add(item)
	}
	q.mu.Unlock()
	for range items {
		q.cond.Signal()
	}
}

// WaitAndPop blocks until an item is available or the queue is shut down with
// nothing left. ok is false only in the latter case.
func (q *Queue[T]) WaitAndPop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.Length() == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.items.Length() == 0 {
		return item, false
	}
	return q.pop(), true
}

// TryPop pops the front item without blocking.
func (q *Queue[T]) TryPop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Length() == 0 {
		return item, false
	}
	return q.pop(), true
}

// TryPopFor waits at most d for an item. It returns ErrClosed if the queue is
// shut down and empty, ErrTimeout if d elapsed first.
func (q *Queue[T]) TryPopFor(d time.Duration) (item T, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	expired := d <= 0
	if !expired {
		// sync.Cond has no timed wait; a timer broadcast stands in for it.
		t := time.AfterFunc(d, func() {
			q.mu.Lock()
			expired = true
			q.mu.Unlock()
			q.cond.Broadcast()
		})
		defer t.Stop()
	}

	for q.items.Length() == 0 && !q.closed && !expired {
		q.cond.Wait()
	}

	switch {
	case q.items.Length() > 0:
		return q.pop(), nil
	case q.closed:
		return item, ErrClosed
	default:
		return item, ErrTimeout
	}
}

// Shutdown marks the queue closed and wakes all waiters. It is idempotent.
func (q *Queue[T]) Shutdown() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

func (q *Queue[T]) IsShutdown() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// pop must be called with mu held and the queue non-empty.
func (q *Queue[T]) pop() T {
	item, _ := q.items.Remove().(T)
	return item
}

package taskpool

import (
	"context"
)

// Work is a unit of work submitted to the pool. Arguments are captured by the
// closure.
type Work[T any] func(ctx context.Context) (T, error)

type Result[T any] struct {
	Data T
	Err  error
}

// Future is the handle to the eventual result of a submitted Work.
type Future[T any] struct {
	done   chan struct{}
	result Result[T]
	cancel context.CancelFunc
}

func newFuture[T any](cancel context.CancelFunc) *Future[T] {
	return &Future[T]{
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// resolve must be called exactly once.
func (f *Future[T]) resolve(r Result[T]) {
	f.result = r
	f.cancel()
	close(f.done)
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Result blocks until the work has completed (or was dropped) and returns its
// outcome. It may be called any number of times.
func (f *Future[T]) Result() Result[T] {
	<-f.done
	return f.result
}

// Get waits for the result or for ctx to be done, whichever comes first.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result.Data, f.result.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Stop cancels the context handed to the work. Work that has not been picked
// up by a worker yet is skipped and resolves with context.Canceled; work that
// is already running only sees the cancelled context.
func (f *Future[T]) Stop() {
	f.cancel()
}

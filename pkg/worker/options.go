package worker

import (
	"time"

	"github.com/kubev2v/inkcore/pkg/log"
)

type Option func(*Worker)

func WithPolicy(p Policy) Option {
	return func(w *Worker) {
		w.policy = p
	}
}

// WithTimeout sets the delay between iterations, which is also the stop bound
// of WaitWithTimeout. Zero makes the loop wake-driven.
func WithTimeout(d time.Duration) Option {
	return func(w *Worker) {
		w.timeout = d
	}
}

// WithOnStart registers a callback run synchronously by Start.
func WithOnStart(fn func()) Option {
	return func(w *Worker) {
		w.onStart = fn
	}
}

// WithOnStop registers a callback run synchronously by Stop once the loop is
// done.
func WithOnStop(fn func()) Option {
	return func(w *Worker) {
		w.onStop = fn
	}
}

// WithErrorHandler replaces the default handler, which logs at fatal level and
// crashes the process, for errors and panics escaping the callback. The
// handler runs on the worker goroutine; the loop continues when it returns.
func WithErrorHandler(fn func(err error)) Option {
	return func(w *Worker) {
		w.onError = fn
	}
}

func WithLogger(l log.Logger) Option {
	return func(w *Worker) {
		w.log = l
	}
}

// WithName names the worker in logs and errors.
func WithName(name string) Option {
	return func(w *Worker) {
		w.name = name
	}
}

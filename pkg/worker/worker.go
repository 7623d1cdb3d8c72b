package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	srvErrors "github.com/kubev2v/inkcore/pkg/errors"
	"github.com/kubev2v/inkcore/pkg/log"
)

// ErrInvalidTimeout is returned by New when WaitWithTimeout is configured
// without a positive timeout.
var ErrInvalidTimeout = errors.New("wait-with-timeout policy requires a positive timeout")

// ProcessFunc is the repeating unit of work. ctx is cancelled when Stop gives
// up on the current iteration (KillImmediately, or WaitWithTimeout after the
// timeout).
type ProcessFunc func(ctx context.Context) error

// Policy selects how Stop treats an iteration that is in flight.
type Policy int

const (
	// KillImmediately cancels the callback's context and joins the loop.
	// When Stop returns the callback has returned.
	KillImmediately Policy = iota
	// WaitForProcessToFinish lets the in-flight callback run to completion
	// with a live context, then joins the loop.
	WaitForProcessToFinish
	// WaitWithTimeout waits at most one timeout period for the loop to exit.
	// Past that, the callback's context is cancelled and Stop returns while
	// the iteration finishes in the background.
	WaitWithTimeout
)

func (p Policy) String() string {
	switch p {
	case KillImmediately:
		return "kill-immediately"
	case WaitForProcessToFinish:
		return "wait-for-process-to-finish"
	case WaitWithTimeout:
		return "wait-with-timeout"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Worker runs a ProcessFunc repeatedly on a background goroutine.
type Worker struct {
	name    string
	process ProcessFunc
	policy  Policy
	timeout time.Duration
	onStart func()
	onStop  func()
	onError func(err error)
	log     log.Logger

	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex
	state     atomic.Int32

	running    atomic.Bool
	processing atomic.Bool

	// wake holds at most one pending wake request. A send that finds it full
	// is dropped; the pending request already covers it.
	wake   chan struct{}
	stop   chan struct{}
	done   chan struct{}
	cancel context.CancelFunc
}

// New creates an idle worker. Call Start to run it.
func New(process ProcessFunc, opts ...Option) (*Worker, error) {
	w := &Worker{
		name:    "worker",
		process: process,
		policy:  KillImmediately,
		wake:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.policy == WaitWithTimeout && w.timeout <= 0 {
		return nil, ErrInvalidTimeout
	}
	if w.log == nil {
		w.log = log.Default().Named(w.name)
	}
	if w.onError == nil {
		w.onError = w.crash
	}
	return w, nil
}

// Start runs OnStart on the calling goroutine, then starts the loop. It is a
// no-op while the worker is running.
//
// The callback's context is derived from ctx. Cancelling ctx ends the loop
// once the in-flight iteration returns and leaves the worker idle without
// running OnStop; Start may then be called again.
//
// If a previous WaitWithTimeout stop returned before its last iteration
// finished, Start waits for that iteration first so that callbacks never
// overlap.
func (w *Worker) Start(ctx context.Context) {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()

	if w.running.Load() {
		return
	}
	if w.done != nil {
		<-w.done
	}

	w.running.Store(true)
	w.state.Store(int32(StateRunning))
	if w.onStart != nil {
		w.onStart()
	}

	select {
	case <-w.wake:
	default:
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.run(ctx, w.stop, w.done)

	w.log.Debugw("started", "policy", w.policy, "timeout", w.timeout)
}

// Stop ends the loop according to the policy, then runs OnStop on the calling
// goroutine. It is a no-op on an idle worker.
//
// Stop must not be called from the process callback: it waits for the loop
// that is running the callback, and would never return.
func (w *Worker) Stop() {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()

	if !w.running.Load() {
		return
	}
	w.state.Store(int32(StateStopping))
	w.running.Store(false)
	close(w.stop)

	switch w.policy {
	case WaitForProcessToFinish:
		w.awaitProcessing()
		<-w.done
	case WaitWithTimeout:
		t := time.NewTimer(w.timeout)
		select {
		case <-w.done:
			t.Stop()
		case <-t.C:
			w.log.Warnw("iteration still running after stop timeout, detaching", "timeout", w.timeout)
		}
	default:
		w.cancel()
		<-w.done
	}
	w.cancel()

	w.state.Store(int32(StateIdle))
	if w.onStop != nil {
		w.onStop()
	}
	w.log.Debugw("stopped", "policy", w.policy)
}

// Wake makes the loop skip the rest of its current wait. A wake issued while
// the callback is running makes the next iteration start immediately.
func (w *Worker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Worker) IsRunning() bool {
	return w.running.Load()
}

// IsProcessing reports whether the callback is executing right now.
func (w *Worker) IsProcessing() bool {
	return w.processing.Load()
}

func (w *Worker) State() State {
	return State(w.state.Load())
}

func (w *Worker) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for w.running.Load() && ctx.Err() == nil {
		if err := w.execute(ctx); err != nil {
			w.onError(srvErrors.NewWorkerCallbackFailedError(w.name, err))
		}
		if !w.running.Load() {
			return
		}
		if !w.sleep(ctx, stop) {
			break
		}
	}

	// Stop clears running before it closes stop or cancels, so only a
	// cancelled parent context gets here with running still set.
	if ctx.Err() != nil && w.running.CompareAndSwap(true, false) {
		w.state.Store(int32(StateIdle))
		w.log.Debugw("context done, loop exited", "error", ctx.Err())
	}
}

// execute runs one iteration. A panic is turned into an error.
func (w *Worker) execute(ctx context.Context) (err error) {
	w.processing.Store(true)
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
		}
		w.processing.Store(false)
	}()
	return w.process(ctx)
}

// sleep waits for the timeout, a wake request, stop or the end of ctx. It
// returns false on stop and when ctx is done. A zero timeout waits for wake,
// stop or ctx only.
func (w *Worker) sleep(ctx context.Context, stop <-chan struct{}) bool {
	var timeout <-chan time.Time
	if w.timeout > 0 {
		t := time.NewTimer(w.timeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case <-stop:
		return false
	case <-ctx.Done():
		return false
	case <-w.wake:
	case <-timeout:
	}

	select {
	case <-w.wake:
	default:
	}
	return true
}

// awaitProcessing polls the processing flag until the in-flight callback, if
// any, has returned.
func (w *Worker) awaitProcessing() {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Microsecond
	b.MaxInterval = 10 * time.Millisecond
	for w.processing.Load() {
		time.Sleep(b.NextBackOff())
	}
}

// crash is the default error handler. It logs at fatal level and panics if the
// sink returns.
func (w *Worker) crash(err error) {
	w.log.Fatalw("worker callback failed", "error", err)
	panic(err)
}

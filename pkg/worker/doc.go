// Package worker runs a single repeating background operation with a
// controllable shutdown.
//
// # Lifecycle
//
//	┌──────┐  Start()   ┌─────────┐  Stop()   ┌──────────┐  loop joined  ┌──────┐
//	│ Idle │ ─────────► │ Running │ ────────► │ Stopping │ ────────────► │ Idle │
//	└──────┘            └─────────┘           └──────────┘               └──────┘
//
// Start runs the OnStart callback on the caller's goroutine and then starts
// the loop. Stop runs the OnStop callback on the caller's goroutine once the
// loop is done (or detached, see WaitWithTimeout). Stop must not be called
// from the callback itself.
//
// Cancelling the context given to Start also ends the loop: the worker goes
// back to Idle once the in-flight iteration returns, without running OnStop.
//
// # Loop
//
//	for running && ctx alive {
//	    processing = true
//	    process(ctx)
//	    processing = false
//	    if !running { return }
//	    wait for timeout, Wake(), Stop() or ctx done
//	    clear pending wake
//	}
//
// Invocations of the callback are strictly sequential. With a zero timeout the
// loop is event driven: after each iteration it waits for Wake or Stop only.
//
// # Stop Policies
//
//	┌────────────────────────┬─────────────────────┬──────────────────────────────┐
//	│ Policy                 │ Callback context    │ Stop returns                 │
//	├────────────────────────┼─────────────────────┼──────────────────────────────┤
//	│ KillImmediately        │ cancelled at once   │ after the callback returned  │
//	│ WaitForProcessToFinish │ left alive          │ after the callback returned  │
//	│ WaitWithTimeout        │ cancelled on expiry │ within one timeout period    │
//	└────────────────────────┴─────────────────────┴──────────────────────────────┘
//
// Goroutines cannot be killed, so KillImmediately is cooperative: it cancels
// the context passed to the callback and joins the loop. A callback that
// ignores its context delays Stop until it returns.
//
// WaitWithTimeout bounds Stop's latency instead. If the loop has not exited
// within one timeout period, Stop cancels the callback's context and returns;
// the running iteration completes in the background and no further iteration
// starts. A later Start waits for that iteration before starting a new loop.
//
// # Errors
//
// An error returned by the callback, or a panic raised in it, is wrapped in a
// WorkerCallbackFailedError and handed to the error handler. The default
// handler logs it at fatal level through the worker's logger and panics, so a
// failing callback terminates the process instead of spinning invisibly.
// Install WithErrorHandler to choose another policy.
//
// # Usage Example
//
//	w, err := worker.New(func(ctx context.Context) error {
//	    return flush(ctx)
//	},
//	    worker.WithPolicy(worker.WaitForProcessToFinish),
//	    worker.WithTimeout(5*time.Second),
//	    worker.WithName("flusher"),
//	)
//	if err != nil {
//	    return err
//	}
//
//	w.Start(ctx)
//	defer w.Stop()
//
//	w.Wake() // flush now rather than in up to 5s
package worker

// Package taskpool implements a fixed-size worker pool executing submitted
// work and returning futures.
//
// The pool starts N long-lived workers that drain a shared FIFO queue
// (package queue). Work is submitted via Submit, which returns a Future that
// can be used to wait for the result or to cancel work that has not started.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────────┐
//	│                              Pool                                   │
//	│                                                                     │
//	│  ┌──────────────┐      ┌──────────────┐      ┌──────────────┐       │
//	│  │   Worker 1   │      │   Worker 2   │      │   Worker N   │       │
//	│  └──────────────┘      └──────────────┘      └──────────────┘       │
//	│         ▲                     ▲                     ▲               │
//	│         │     WaitAndPop()    │                     │               │
//	│         └─────────────────────┼─────────────────────┘               │
//	│                               │                                     │
//	│  ┌────────────────────────────┴────────────────────────────┐        │
//	│  │                    queue.Queue[*task]                   │        │
//	│  │  [task1] [task2] [task3] ...                            │        │
//	│  └─────────────────────────────────────────────────────────┘        │
//	│                               ▲                                     │
//	│                               │                                     │
//	│                          Submit(fn)                                 │
//	└─────────────────────────────────────────────────────────────────────┘
//
// # Work Execution Flow
//
//  1. Client calls Submit(pool, fn)
//     │
//     ▼
//  2. Submit wraps fn into a task:
//     - a cancellable context (cancelled by Future.Stop)
//     - a run closure that executes fn and resolves the Future
//     - an abort closure that resolves the Future with an error
//     │
//     ▼
//  3. Under the pool mutex: reject if stopping, count the task as pending,
//     push it to the queue (waking one worker)
//     │
//     ▼
//  4. A worker pops the task, marks itself active, runs it, marks itself idle
//     │
//     ▼
//  5. The pending count drops; at zero every Wait caller is woken
//
// Tasks are dequeued in submission order. Completion order across workers is
// unspecified.
//
// # Panic Recovery
//
// A panic in a work function never reaches the worker loop. It is recovered
// and delivered through the Future as a TaskPanickedError carrying the panic
// value and stack:
//
//	res := future.Result()
//	if srvErrors.IsTaskPanickedError(res.Err) {
//	    // the work function panicked
//	}
//
// # Wait Barrier
//
// Wait blocks until every submitted task has either run or been dropped. It
// relies on a pending counter guarded by the pool mutex, incremented before a
// task is queued and decremented after it completes, so a task that has just
// been popped but has not yet started is never missed.
//
// # Shutdown
//
// Two ways to stop a pool:
//
//	┌────────────┬───────────────────────┬───────────────────────────────┐
//	│ Method     │ Queued tasks          │ Running tasks                 │
//	├────────────┼───────────────────────┼───────────────────────────────┤
//	│ Shutdown() │ run to completion     │ run to completion             │
//	│ Close()    │ dropped (destroyed)   │ run to completion             │
//	└────────────┴───────────────────────┴───────────────────────────────┘
//
// Both reject new work with a PoolStoppedError from the moment they are
// called, both wait for the workers to exit, and both are idempotent.
// Dropped tasks resolve with a PoolDestroyedError.
//
// A pool created with zero workers never runs anything: its tasks stay queued
// and are dropped when the pool is stopped.
//
// # Usage Example
//
//	pool := taskpool.New(4)
//	defer pool.Close()
//
//	future, err := taskpool.Submit(pool, func(ctx context.Context) (int, error) {
//	    return 3 + 4, nil
//	})
//	if err != nil {
//	    return err // pool stopped
//	}
//
//	sum, err := future.Get(ctx)
package taskpool

package errors

import (
	"errors"
	"fmt"
)

// PoolStoppedError is returned by Submit once the pool has begun shutting down.
type PoolStoppedError struct{}

func NewPoolStoppedError() *PoolStoppedError {
	return &PoolStoppedError{}
}

func (e *PoolStoppedError) Error() string {
	return "task pool is stopped"
}

func IsPoolStoppedError(err error) bool {
	var e *PoolStoppedError
	return errors.As(err, &e)
}

// PoolDestroyedError resolves the futures of tasks that were still queued when
// the pool was closed.
type PoolDestroyedError struct{}

func NewPoolDestroyedError() *PoolDestroyedError {
	return &PoolDestroyedError{}
}

func (e *PoolDestroyedError) Error() string {
	return "task pool destroyed before the task ran"
}

func IsPoolDestroyedError(err error) bool {
	var e *PoolDestroyedError
	return errors.As(err, &e)
}

// TaskPanickedError carries a panic recovered from a task body.
type TaskPanickedError struct {
	Value any
	Stack []byte
}

func NewTaskPanickedError(value any, stack []byte) *TaskPanickedError {
	return &TaskPanickedError{Value: value, Stack: stack}
}

func (e *TaskPanickedError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *TaskPanickedError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func IsTaskPanickedError(err error) bool {
	var e *TaskPanickedError
	return errors.As(err, &e)
}

// WorkerCallbackFailedError wraps an error returned, or a panic raised, by a
// managed worker's process callback.
type WorkerCallbackFailedError struct {
	Worker string
	Cause  error
}

func NewWorkerCallbackFailedError(worker string, cause error) *WorkerCallbackFailedError {
	return &WorkerCallbackFailedError{Worker: worker, Cause: cause}
}

func (e *WorkerCallbackFailedError) Error() string {
	return fmt.Sprintf("worker %q callback failed: %v", e.Worker, e.Cause)
}

func (e *WorkerCallbackFailedError) Unwrap() error {
	return e.Cause
}

func IsWorkerCallbackFailedError(err error) bool {
	var e *WorkerCallbackFailedError
	return errors.As(err, &e)
}

// SessionNotFoundError is returned for an unknown or expired session id.
type SessionNotFoundError struct {
	ID string
}

func NewSessionNotFoundError(id string) *SessionNotFoundError {
	return &SessionNotFoundError{ID: id}
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.ID)
}

func IsSessionNotFoundError(err error) bool {
	var e *SessionNotFoundError
	return errors.As(err, &e)
}

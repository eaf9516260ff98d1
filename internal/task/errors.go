package task

import (
	"errors"
	"fmt"
)

// Common errors returned by the task package
var (
	// ErrWorkerStarted is returned when Run is called on a worker that is already running
	ErrWorkerStarted = errors.New("worker already started")

	// ErrWorkerStopped is returned when Run is called on a worker that has been shut down
	ErrWorkerStopped = errors.New("worker stopped")

	// ErrMissingType is returned when a payload is decoded without a task type
	ErrMissingType = errors.New("task type is required")

	// ErrInvalidPayload is returned when a payload does not match its task type
	ErrInvalidPayload = errors.New("invalid task payload")

	// ErrUnsafeTarget is returned when a cleanup target escapes the data directory
	ErrUnsafeTarget = errors.New("cleanup target outside data directory")
)

// panicError wraps a value recovered from a panic.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// Unwrap returns the panic value when it was an error.
func (e *panicError) Unwrap() error {
	err, _ := e.value.(error)
	return err
}

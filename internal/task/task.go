package task

import (
	"time"
)

// Type identifies which handler processes a task.
type Type string

// Built-in task types
const (
	// TypeVectorIndex rebuilds or extends a vector search index
	TypeVectorIndex Type = "vector_index"

	// TypeModelCache warms the local cache for a model
	TypeModelCache Type = "model_cache"

	// TypeDataCleanup removes stale files from the worker's data directory
	TypeDataCleanup Type = "data_cleanup"

	// TypeHealthCheck reports worker liveness through the health gauge
	TypeHealthCheck Type = "health_check"
)

// DefaultMaxAttempts is the number of handler invocations a task gets
// when the producer does not choose a ceiling.
const DefaultMaxAttempts = 3

// Task represents a unit of background work together with its retry bookkeeping.
//
// A producer owns a task until it is enqueued. From then on only the Processor
// reads or mutates it.
type Task struct {
	// ID is supplied by the producer; the engine does not enforce uniqueness
	ID string

	// Payload carries the type-specific parameters and determines Type()
	Payload Payload

	// CreatedAt is set by NewTask
	CreatedAt time.Time

	// Attempts counts handler invocations made so far
	Attempts int

	// MaxAttempts caps handler invocations
	MaxAttempts int
}

// Option customizes a task built by NewTask.
type Option func(*Task)

// WithMaxAttempts overrides DefaultMaxAttempts. Values <= 0 are ignored.
func WithMaxAttempts(n int) Option {
	return func(t *Task) {
		if n > 0 {
			t.MaxAttempts = n
		}
	}
}

// WithCreatedAt overrides the construction timestamp.
func WithCreatedAt(at time.Time) Option {
	return func(t *Task) {
		t.CreatedAt = at
	}
}

// NewTask creates a task with zero attempts and the default attempt ceiling.
func NewTask(id string, payload Payload, opts ...Option) *Task {
	t := &Task{
		ID:          id,
		Payload:     payload,
		CreatedAt:   time.Now(),
		MaxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Type returns the discriminator of the task's payload variant.
// A task without a payload has an empty type and is never dispatched.
func (t *Task) Type() Type {
	if t.Payload == nil {
		return ""
	}
	return t.Payload.Kind()
}

// canRetry reports whether another handler invocation is allowed.
func (t *Task) canRetry() bool {
	return t.Attempts < t.MaxAttempts
}

package task

import (
	"context"
	"sort"
)

// Handler performs the work for one task type.
//
// It returns true on success and false for a failure worth retrying.
// A non-nil error (or a panic) means something unexpected happened; the
// task is then dropped without retry regardless of remaining attempts.
// Handlers receive a copy of the task and must not rely on mutating it.
type Handler interface {
	Handle(ctx context.Context, t Task) (bool, error)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, t Task) (bool, error)

// Handle calls f(ctx, t).
func (f HandlerFunc) Handle(ctx context.Context, t Task) (bool, error) {
	return f(ctx, t)
}

// Registry is a fixed mapping from task type to handler. It is built once
// and is safe for concurrent reads.
type Registry struct {
	handlers map[Type]Handler
}

// NewRegistry copies handlers into a new registry. Nil handlers are skipped.
func NewRegistry(handlers map[Type]Handler) *Registry {
	r := &Registry{handlers: make(map[Type]Handler, len(handlers))}
	for taskType, h := range handlers {
		if h != nil {
			r.handlers[taskType] = h
		}
	}
	return r
}

// Lookup returns the handler registered for taskType.
func (r *Registry) Lookup(taskType Type) (Handler, bool) {
	h, ok := r.handlers[taskType]
	return h, ok
}

// Types returns the registered task types in sorted order.
func (r *Registry) Types() []Type {
	types := make([]Type, 0, len(r.handlers))
	for taskType := range r.handlers {
		types = append(types, taskType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

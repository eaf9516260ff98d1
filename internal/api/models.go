package api

import (
	"encoding/json"
)

// SubmitTaskRequest defines the payload for the task submission endpoint.
type SubmitTaskRequest struct {
	// ID is optional; the submission event ID is used when empty
	ID string `json:"id,omitempty" validate:"max=256"`

	// Type selects the handler, e.g. "vector_index"
	Type string `json:"type" validate:"required,max=128"`

	// Payload holds the type-specific parameters
	Payload json.RawMessage `json:"payload,omitempty"`

	// MaxAttempts overrides the configured attempt ceiling when positive
	MaxAttempts int `json:"max_attempts,omitempty" validate:"gte=0,lte=100"`
}

// SubmitTaskResponse is returned once a task has been queued.
type SubmitTaskResponse struct {
	TaskID string `json:"task_id"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// HealthResponse reports the worker lifecycle state.
type HealthResponse struct {
	Status     string `json:"status"`
	QueueDepth int    `json:"queue_depth"`
}

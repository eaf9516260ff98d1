package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/mcp-worker/internal/events"
	"github.com/phrazzld/mcp-worker/internal/redact"
)

// Submitter accepts tasks for processing. *Worker implements it.
type Submitter interface {
	AddTask(task *Task)
}

// SubmissionEventHandler implements the events.EventHandler interface.
// It turns task request events into typed tasks and submits them.
type SubmissionEventHandler struct {
	submitter   Submitter
	maxAttempts int
	logger      *slog.Logger
}

// NewSubmissionEventHandler creates a new event handler that submits
// the tasks it builds to submitter. maxAttempts is the ceiling for events
// that do not set their own; values <= 0 mean DefaultMaxAttempts.
func NewSubmissionEventHandler(submitter Submitter, maxAttempts int, logger *slog.Logger) *SubmissionEventHandler {
	return &SubmissionEventHandler{
		submitter:   submitter,
		maxAttempts: maxAttempts,
		logger:      logger.With("component", "submission_event_handler"),
	}
}

// HandleEvent decodes the event payload into the variant for its task type
// and submits the resulting task. The task takes the event's task ID, or
// the event ID when none was given.
func (h *SubmissionEventHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	payload, err := DecodePayload(Type(event.Type), event.Payload)
	if err != nil {
		h.logger.Error("failed to decode payload",
			redact.ErrorAttr(err),
			"event_id", event.ID,
			"event_type", event.Type)
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	taskID := event.TaskID
	if taskID == "" {
		taskID = event.ID.String()
	}

	task := NewTask(taskID, payload,
		WithMaxAttempts(h.maxAttempts),
		WithMaxAttempts(event.MaxAttempts),
		WithCreatedAt(event.CreatedAt))
	h.submitter.AddTask(task)

	h.logger.Debug("task created from event",
		"task_id", task.ID,
		"task_type", task.Type(),
		"event_id", event.ID)
	return nil
}

// Ensure SubmissionEventHandler implements events.EventHandler
var _ events.EventHandler = (*SubmissionEventHandler)(nil)

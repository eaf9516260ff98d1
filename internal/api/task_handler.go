package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/mcp-worker/internal/api/shared"
	"github.com/phrazzld/mcp-worker/internal/events"
)

// TaskHandler accepts task submissions and hands them to the event emitter
type TaskHandler struct {
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(emitter events.EventEmitter, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		emitter: emitter,
		logger:  logger.With("component", "task_handler"),
	}
}

// SubmitTask handles POST /api/tasks requests
func (h *TaskHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	var req SubmitTaskRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	event, err := events.NewTaskRequestEvent(req.Type, req.Payload)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid task payload", err)
		return
	}
	event.TaskID = req.ID
	event.MaxAttempts = req.MaxAttempts

	if err := h.emitter.EmitEvent(r.Context(), event); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	taskID := event.TaskID
	if taskID == "" {
		taskID = event.ID.String()
	}
	h.logger.Info("task submitted",
		"task_id", taskID,
		"task_type", req.Type,
		"trace_id", shared.GetTraceID(r.Context()))

	// Processing happens asynchronously
	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitTaskResponse{
		TaskID: taskID,
		Type:   req.Type,
		Status: "queued",
	})
}

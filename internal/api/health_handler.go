package api

import (
	"net/http"

	"github.com/phrazzld/mcp-worker/internal/api/shared"
	"github.com/phrazzld/mcp-worker/internal/task"
)

// WorkerStatus is the view of the worker the health probe needs.
// *task.Worker implements it.
type WorkerStatus interface {
	State() task.State
	QueueLen() int
}

// HealthHandler serves the liveness probe
type HealthHandler struct {
	worker WorkerStatus
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(worker WorkerStatus) *HealthHandler {
	return &HealthHandler{worker: worker}
}

// Health handles GET /health requests. It answers 200 while the worker is
// running and 503 in every other state.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	state := h.worker.State()
	status := http.StatusOK
	if state != task.StateRunning {
		status = http.StatusServiceUnavailable
	}

	shared.RespondWithJSON(w, r, status, HealthResponse{
		Status:     state.String(),
		QueueDepth: h.worker.QueueLen(),
	})
}

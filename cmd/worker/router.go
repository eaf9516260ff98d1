package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/mcp-worker/internal/api"
	apiMiddleware "github.com/phrazzld/mcp-worker/internal/api/middleware"
)

// setupRouter creates the router serving metrics, health and task submission.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(app.logger.With("component", "http")))
	r.Use(middleware.Recoverer)

	taskHandler := api.NewTaskHandler(app.eventEmitter, app.logger)
	healthHandler := api.NewHealthHandler(app.worker)

	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())
	r.Get("/health", healthHandler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/tasks", taskHandler.SubmitTask)
	})

	return r
}

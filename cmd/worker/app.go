package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/mcp-worker/internal/config"
	"github.com/phrazzld/mcp-worker/internal/events"
	"github.com/phrazzld/mcp-worker/internal/metrics"
	"github.com/phrazzld/mcp-worker/internal/task"
)

// application holds the wired components of a running worker process.
type application struct {
	config *config.Config
	logger *slog.Logger

	metrics      *metrics.Metrics
	registry     *task.Registry
	worker       *task.Worker
	eventEmitter *events.InMemoryEventEmitter
	server       *http.Server
}

// newApplication builds the task engine, its metrics sink, the submission
// path and the HTTP server from cfg. Nothing is started.
func newApplication(cfg *config.Config, logger *slog.Logger) *application {
	app := &application{
		config:  cfg,
		logger:  logger,
		metrics: metrics.New(cfg.Metrics.Namespace),
	}

	handlers := task.BuiltinHandlers(task.HandlerConfig{
		DataDir:          cfg.Handlers.DataDir,
		VectorIndexDelay: cfg.Handlers.VectorIndexDelay,
		ModelCacheDelay:  cfg.Handlers.ModelCacheDelay,
	}, app.metrics, logger.With("component", "task_handler"))
	app.registry = task.NewRegistry(handlers)

	workerConfig := task.DefaultWorkerConfig()
	workerConfig.Processor = task.ProcessorConfig{
		PollInterval: cfg.Worker.PollInterval,
		ErrorPause:   cfg.Worker.ErrorPause,
	}
	workerConfig.HealthInterval = cfg.Worker.HealthInterval
	workerConfig.ResponderShutdownTimeout = cfg.Worker.ShutdownTimeout
	app.worker = task.NewWorker(app.registry, app.metrics, workerConfig, logger.With("component", "worker"))

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(task.NewSubmissionEventHandler(app.worker, cfg.Worker.MaxAttempts, logger))

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	app.worker.SetResponder(app.server)

	return app
}

// run blocks until the worker has shut down.
func (app *application) run(ctx context.Context) error {
	app.logger.Info("starting mcp worker",
		"addr", app.server.Addr,
		"task_types", app.registry.Types(),
		"max_attempts", app.config.Worker.MaxAttempts)

	if err := app.worker.Run(ctx); err != nil {
		return fmt.Errorf("worker failed: %w", err)
	}
	return nil
}

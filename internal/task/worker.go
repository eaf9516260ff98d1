package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/phrazzld/mcp-worker/internal/redact"
	"golang.org/x/sync/errgroup"
)

// State is a worker lifecycle state
type State int32

// Worker lifecycle states. A worker only moves forward through them.
const (
	StateCreated State = iota
	StateRunning
	StateShuttingDown
	StateStopped
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Responder is the pull-based metrics endpoint started alongside the worker.
// *http.Server satisfies it.
type Responder interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// WorkerConfig holds configuration for the worker lifecycle
type WorkerConfig struct {
	// Processor configures the processing loop
	Processor ProcessorConfig

	// HealthInterval is how often a health-check task is enqueued
	HealthInterval time.Duration

	// ResponderShutdownTimeout bounds the graceful stop of the responder
	ResponderShutdownTimeout time.Duration

	// Signals that trigger graceful shutdown. Empty disables signal handling.
	Signals []os.Signal
}

// DefaultWorkerConfig returns a WorkerConfig with reasonable defaults
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Processor:                DefaultProcessorConfig(),
		HealthInterval:           30 * time.Second,
		ResponderShutdownTimeout: 10 * time.Second,
		Signals:                  []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
}

// InitialHealthCheckID is the id of the health-check task enqueued on start.
const InitialHealthCheckID = "initial-health-check"

// Worker owns the task queue and processor and coordinates their lifecycle:
// startup, the periodic health-check producer, the metrics responder and
// graceful shutdown.
type Worker struct {
	queue     *TaskQueue
	processor *Processor
	recorder  Recorder
	responder Responder
	config    WorkerConfig
	logger    *slog.Logger

	// mu guards state transitions and cancel
	mu     sync.Mutex
	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker creates a worker with its own queue and a processor bound to registry.
func NewWorker(registry *Registry, recorder Recorder, config WorkerConfig, logger *slog.Logger) *Worker {
	defaults := DefaultWorkerConfig()
	if config.HealthInterval <= 0 {
		config.HealthInterval = defaults.HealthInterval
	}
	if config.ResponderShutdownTimeout <= 0 {
		config.ResponderShutdownTimeout = defaults.ResponderShutdownTimeout
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}

	queue := NewTaskQueue(logger.With("component", "task_queue"))
	return &Worker{
		queue: queue,
		processor: NewProcessor(queue, registry, recorder, config.Processor,
			logger.With("component", "task_processor")),
		recorder: recorder,
		config:   config,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// SetResponder sets the metrics responder started by Run. It must be called before Run.
func (w *Worker) SetResponder(responder Responder) {
	w.responder = responder
}

// AddTask submits a task for processing. It always succeeds.
func (w *Worker) AddTask(task *Task) {
	w.queue.Enqueue(task)
	w.recorder.SetQueueDepth(w.queue.Len())
	w.logger.Info("task added to queue",
		"task_id", task.ID,
		"task_type", task.Type())
}

// QueueLen returns the number of pending tasks
func (w *Worker) QueueLen() int {
	return w.queue.Len()
}

// State returns the current lifecycle state
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Done is closed once the worker has stopped
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Run starts the worker and blocks until it has shut down, either through
// Shutdown, cancellation of ctx, or one of the configured signals.
//
// A canceled run is a normal stop and yields a nil error. A worker runs at most once.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	switch w.State() {
	case StateRunning, StateShuttingDown:
		w.mu.Unlock()
		return ErrWorkerStarted
	case StateStopped:
		w.mu.Unlock()
		return ErrWorkerStopped
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	// Signals are subscribed before the worker reports running.
	if len(w.config.Signals) > 0 {
		var stop context.CancelFunc
		runCtx, stop = signal.NotifyContext(runCtx, w.config.Signals...)
		defer stop()
	}
	w.cancel = cancel
	w.state.Store(int32(StateRunning))
	w.mu.Unlock()

	w.logger.Info("starting worker",
		"health_interval", w.config.HealthInterval,
		"responder", w.responder != nil)

	w.processor.Start()
	w.AddTask(NewTask(InitialHealthCheckID, HealthCheckPayload{}))

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return w.processor.Run(gctx)
	})
	g.Go(func() error {
		return w.produceHealthChecks(gctx)
	})
	if w.responder != nil {
		g.Go(func() error {
			return w.serve(gctx)
		})
	}

	<-gctx.Done()
	w.beginShutdown()

	err := g.Wait()
	w.finish()

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		w.logger.Error("worker stopped with error", redact.ErrorAttr(err))
		return err
	}
	w.logger.Info("worker shutdown complete")
	return nil
}

// Shutdown stops the worker gracefully: the processor stops taking tasks, the
// in-flight handler (if any) runs to completion, and all background activities
// are canceled. It waits until the worker has stopped or ctx is done.
//
// Shutdown is idempotent. Called before Run, it moves the worker straight to stopped.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	switch w.State() {
	case StateCreated:
		w.state.Store(int32(StateStopped))
		close(w.done)
		w.mu.Unlock()
		w.logger.Info("worker stopped before start")
		return nil
	case StateRunning:
		w.logger.Info("initiating graceful shutdown")
		w.state.Store(int32(StateShuttingDown))
		w.processor.Stop()
		w.cancel()
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for worker shutdown: %w", ctx.Err())
	}
}

// beginShutdown handles stops that did not come through Shutdown: a signal,
// a canceled parent context or a failed responder.
func (w *Worker) beginShutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.State() == StateRunning {
		w.logger.Info("received shutdown signal, initiating graceful shutdown")
		w.state.Store(int32(StateShuttingDown))
	}
	w.processor.Stop()
}

func (w *Worker) finish() {
	abandoned := w.queue.Drain()
	if len(abandoned) > 0 {
		w.logger.Warn("discarding queued tasks on shutdown", "count", len(abandoned))
	}
	w.recorder.SetQueueDepth(0)
	w.recorder.SetHealthy(false)

	w.mu.Lock()
	w.state.Store(int32(StateStopped))
	close(w.done)
	w.mu.Unlock()
}

// produceHealthChecks enqueues a health-check task every HealthInterval while
// the processor is running.
func (w *Worker) produceHealthChecks(ctx context.Context) error {
	ticker := time.NewTicker(w.config.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if !w.processor.Running() {
				return nil
			}
			w.AddTask(NewTask("health-check-"+now.Format(time.RFC3339), HealthCheckPayload{}))
		}
	}
}

// serve runs the responder until ctx is done, then stops it gracefully.
func (w *Worker) serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.responder.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics responder failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.config.ResponderShutdownTimeout)
	defer cancel()
	if err := w.responder.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics responder shutdown failed: %w", err)
	}
	<-errCh
	return ctx.Err()
}

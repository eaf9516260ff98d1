package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/phrazzld/mcp-worker/internal/redact"
)

// Queue is the buffer the Processor consumes from. TaskQueue implements it.
type Queue interface {
	Enqueue(task *Task)
	Dequeue(ctx context.Context, timeout time.Duration) (*Task, bool, error)
	Len() int
}

// ProcessorConfig holds timing configuration for the processing loop
type ProcessorConfig struct {
	// PollInterval bounds how long a single dequeue waits for a task
	PollInterval time.Duration

	// ErrorPause is how long the loop backs off after a loop-level fault
	ErrorPause time.Duration
}

// DefaultProcessorConfig returns a ProcessorConfig with reasonable defaults
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval: time.Second,
		ErrorPause:   time.Second,
	}
}

// Processor is the single-consumer loop that takes tasks off the queue,
// dispatches them to their handler and applies the retry policy.
// Exactly one task is in flight at any time.
type Processor struct {
	queue    Queue
	registry *Registry
	recorder Recorder
	config   ProcessorConfig
	logger   *slog.Logger
	running  atomic.Bool
}

// NewProcessor creates a Processor. The registry is fixed for the processor's lifetime.
func NewProcessor(queue Queue, registry *Registry, recorder Recorder, config ProcessorConfig, logger *slog.Logger) *Processor {
	defaults := DefaultProcessorConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.ErrorPause <= 0 {
		config.ErrorPause = defaults.ErrorPause
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}

	return &Processor{
		queue:    queue,
		registry: registry,
		recorder: recorder,
		config:   config,
		logger:   logger,
	}
}

// Start sets the running flag. Run returns once it is cleared.
func (p *Processor) Start() {
	p.running.Store(true)
}

// Stop clears the running flag. The loop exits after the current task, or
// once the pending dequeue times out.
func (p *Processor) Stop() {
	p.running.Store(false)
}

// Running reports whether the running flag is set.
func (p *Processor) Running() bool {
	return p.running.Load()
}

// Run processes tasks until Stop is called or ctx is done.
// Loop-level faults are logged and followed by a pause; they never end the loop.
func (p *Processor) Run(ctx context.Context) error {
	p.logger.Info("starting task processor",
		"poll_interval", p.config.PollInterval,
		"handlers", p.registry.Types())

	for p.running.Load() {
		if _, err := p.ProcessNext(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("task processor stopped", "reason", ctx.Err())
				return ctx.Err()
			}
			p.logger.Error("error in task processing loop", redact.ErrorAttr(err))
			if err := p.pause(ctx); err != nil {
				p.logger.Info("task processor stopped", "reason", err)
				return err
			}
		}
	}

	p.logger.Info("task processor stopped")
	return nil
}

// ProcessNext waits up to the poll interval for one task and processes it.
// It reports whether a task was dequeued. Errors are loop-level: a failed
// dequeue or a fault outside the handler invocation.
func (p *Processor) ProcessNext(ctx context.Context) (processed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processing loop: %w", &panicError{value: r})
		}
	}()

	task, ok, err := p.queue.Dequeue(ctx, p.config.PollInterval)
	if err != nil {
		return false, fmt.Errorf("failed to dequeue task: %w", err)
	}
	if !ok {
		return false, nil
	}
	p.recorder.SetQueueDepth(p.queue.Len())

	p.process(ctx, task)
	return true, nil
}

// process runs one task through its handler and routes the outcome.
func (p *Processor) process(ctx context.Context, task *Task) {
	p.recorder.TaskStarted()
	defer p.recorder.TaskFinished()

	start := time.Now()
	taskType := task.Type()
	logger := p.logger.With(
		"task_id", task.ID,
		"task_type", taskType,
	)

	handler, ok := p.registry.Lookup(taskType)
	if !ok {
		logger.Error("no handler for task type")
		p.recorder.TaskProcessed(taskType, StatusError)
		return
	}

	task.Attempts++
	success, err := p.invoke(ctx, handler, *task)
	if err != nil {
		// Handler errors are not retried, whatever attempts remain.
		logger.Error("unexpected error processing task",
			"attempts", task.Attempts,
			redact.ErrorAttr(err))
		p.recorder.TaskProcessed(taskType, StatusError)
		return
	}

	duration := time.Since(start)
	p.recorder.ObserveDuration(taskType, duration)

	if success {
		logger.Info("task processed successfully",
			"attempts", task.Attempts,
			"duration", duration)
		p.recorder.TaskProcessed(taskType, StatusSuccess)
		return
	}

	if task.canRetry() {
		logger.Warn("task failed, retrying",
			"attempts", task.Attempts,
			"max_attempts", task.MaxAttempts)
		p.recorder.TaskRetried(taskType)
		p.queue.Enqueue(task)
		p.recorder.SetQueueDepth(p.queue.Len())
		return
	}

	logger.Error("task failed after max attempts",
		"attempts", task.Attempts,
		"max_attempts", task.MaxAttempts)
	p.recorder.TaskProcessed(taskType, StatusFailed)
}

// invoke calls the handler with a context that shutdown cannot cancel, so an
// in-progress handler always runs to completion. Panics become errors.
func (p *Processor) invoke(ctx context.Context, handler Handler, task Task) (success bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			success = false
			err = fmt.Errorf("handler: %w", &panicError{value: r})
		}
	}()

	return handler.Handle(context.WithoutCancel(ctx), task)
}

func (p *Processor) pause(ctx context.Context) error {
	timer := time.NewTimer(p.config.ErrorPause)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

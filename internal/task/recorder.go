package task

import "time"

// Status is the terminal outcome label recorded for a processed task.
type Status string

// Terminal outcomes
const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
)

// Recorder receives the observations the engine emits while processing tasks.
// Implementations must be safe for concurrent use.
type Recorder interface {
	// TaskProcessed counts a terminal outcome for a task type
	TaskProcessed(taskType Type, status Status)

	// TaskRetried counts a task put back on the queue after a failed attempt
	TaskRetried(taskType Type)

	// ObserveDuration records how long one handler invocation took
	ObserveDuration(taskType Type, d time.Duration)

	// TaskStarted and TaskFinished bracket the processing of one dequeued task
	TaskStarted()
	TaskFinished()

	// SetHealthy reports worker health
	SetHealthy(healthy bool)

	// SetQueueDepth reports the number of pending tasks
	SetQueueDepth(n int)
}

// NopRecorder discards all observations.
type NopRecorder struct{}

func (NopRecorder) TaskProcessed(Type, Status) {}
func (NopRecorder) TaskRetried(Type) {}
func (NopRecorder) ObserveDuration(Type, time.Duration) {}
func (NopRecorder) TaskStarted() {}
func (NopRecorder) TaskFinished() {}
func (NopRecorder) SetHealthy(bool) {}
func (NopRecorder) SetQueueDepth(int) {}

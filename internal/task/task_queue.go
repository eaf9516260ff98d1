package task

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// TaskQueue is an unbounded FIFO buffer of pending tasks. Enqueue is safe for
// any number of concurrent producers; Dequeue is intended for a single consumer.
type TaskQueue struct {
	mu     sync.Mutex
	tasks  []*Task
	notify chan struct{}
	logger *slog.Logger
}

// NewTaskQueue creates an empty task queue.
func NewTaskQueue(logger *slog.Logger) *TaskQueue {
	return &TaskQueue{
		notify: make(chan struct{}, 1),
		logger: logger,
	}
}

// Enqueue appends a task to the tail of the queue. It never blocks and never rejects.
func (q *TaskQueue) Enqueue(task *Task) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	queueLen := len(q.tasks)
	q.mu.Unlock()

	// Wake the consumer if it is waiting; a pending wake-up is enough.
	select {
	case q.notify <- struct{}{}:
	default:
	}

	q.logger.Debug("task enqueued",
		"task_id", task.ID,
		"task_type", task.Type(),
		"queue_len", queueLen)
}

// Dequeue removes and returns the task at the head of the queue.
//
// If no task arrives within timeout it returns ok == false and a nil error.
// The only error it returns is ctx.Err() once ctx is done.
func (q *TaskQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Task, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if task, ok := q.pop(); ok {
		return task, true, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-timer.C:
			// Last look in case a wake-up raced with the deadline.
			task, ok := q.pop()
			return task, ok, nil
		case <-q.notify:
			if task, ok := q.pop(); ok {
				return task, true, nil
			}
		}
	}
}

// Len returns the number of pending tasks.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Drain removes and returns every pending task.
func (q *TaskQueue) Drain() []*Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	tasks := q.tasks
	q.tasks = nil
	return tasks
}

func (q *TaskQueue) pop() (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil, false
	}
	task := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	return task, true
}

package task

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Processor: ProcessorConfig{
			PollInterval: 20 * time.Millisecond,
			ErrorPause:   20 * time.Millisecond,
		},
		HealthInterval:           time.Hour,
		ResponderShutdownTimeout: time.Second,
	}
}

func newTestWorker(recorder *fakeRecorder, config WorkerConfig, handlers map[Type]Handler) *Worker {
	all := map[Type]Handler{
		TypeHealthCheck: &HealthCheckHandler{recorder: recorder, logger: testLogger()},
	}
	for taskType, h := range handlers {
		all[taskType] = h
	}
	return NewWorker(NewRegistry(all), recorder, config, testLogger())
}

// startWorker runs w in the background and waits until it is running.
func startWorker(t *testing.T, ctx context.Context, w *Worker) <-chan error {
	t.Helper()
	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(ctx) }()
	require.Eventually(t, func() bool { return w.State() == StateRunning },
		time.Second, 5*time.Millisecond)
	return runErr
}

func shutdownWorker(t *testing.T, w *Worker, runErr <-chan error) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, w.Shutdown(ctx))

	select {
	case err := <-runErr:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after shutdown")
		return nil
	}
}

func TestWorker_InitialHealthCheck(t *testing.T) {
	recorder := newFakeRecorder()
	w := newTestWorker(recorder, testWorkerConfig(), nil)

	runErr := startWorker(t, context.Background(), w)

	require.Eventually(t, func() bool {
		return recorder.count(TypeHealthCheck, StatusSuccess) == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, recorder.isHealthy())

	assert.NoError(t, shutdownWorker(t, w, runErr))
	assert.Equal(t, StateStopped, w.State())
	assert.False(t, recorder.isHealthy(), "health drops to 0 once stopped")
}

func TestWorker_UnregisteredTaskType(t *testing.T) {
	recorder := newFakeRecorder()
	w := newTestWorker(recorder, testWorkerConfig(), nil)
	runErr := startWorker(t, context.Background(), w)

	task := NewTask("bogus-1", RawPayload{Type: "bogus"})
	w.AddTask(task)

	require.Eventually(t, func() bool {
		return recorder.count("bogus", StatusError) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, w.QueueLen())
	assert.Equal(t, 0, recorder.retries("bogus"))
	assert.Equal(t, 0, task.Attempts)

	assert.NoError(t, shutdownWorker(t, w, runErr))
}

func TestWorker_AlwaysFailingHandler(t *testing.T) {
	recorder := newFakeRecorder()
	var calls atomic.Int32
	w := newTestWorker(recorder, testWorkerConfig(), map[Type]Handler{
		testType: HandlerFunc(func(context.Context, Task) (bool, error) {
			calls.Add(1)
			return false, nil
		}),
	})
	runErr := startWorker(t, context.Background(), w)

	w.AddTask(NewTask("fails", testPayload{kind: testType}, WithMaxAttempts(3)))

	require.Eventually(t, func() bool {
		return recorder.count(testType, StatusFailed) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2, recorder.retries(testType))

	assert.NoError(t, shutdownWorker(t, w, runErr))
	assert.Equal(t, 1, recorder.count(testType, StatusFailed))
}

func TestWorker_ShutdownWithQueuedTasks(t *testing.T) {
	recorder := newFakeRecorder()
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	var finished atomic.Bool

	w := newTestWorker(recorder, testWorkerConfig(), map[Type]Handler{
		testType: HandlerFunc(func(ctx context.Context, _ Task) (bool, error) {
			if calls.Add(1) == 1 {
				close(started)
			}
			<-release
			finished.Store(ctx.Err() == nil)
			return true, nil
		}),
	})
	runErr := startWorker(t, context.Background(), w)

	for i := 0; i < 6; i++ {
		w.AddTask(NewTask("queued", testPayload{kind: testType}))
	}
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}

	shutdownErr := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		shutdownErr <- w.Shutdown(ctx)
	}()

	require.Eventually(t, func() bool { return w.State() == StateShuttingDown },
		time.Second, 5*time.Millisecond)
	close(release)

	require.NoError(t, <-shutdownErr)
	require.NoError(t, <-runErr)

	assert.True(t, finished.Load(), "in-flight handler ran to completion with a live context")
	assert.Equal(t, int32(1), calls.Load(), "no invocations after shutdown")
	assert.Equal(t, 1, recorder.count(testType, StatusSuccess))
	assert.Equal(t, StateStopped, w.State())
	assert.Equal(t, 0, w.QueueLen(), "queued tasks are abandoned")
	assert.Equal(t, 0, recorder.depth())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWorker_SignalTriggersShutdown(t *testing.T) {
	recorder := newFakeRecorder()
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	var finished atomic.Bool

	config := testWorkerConfig()
	config.Signals = []os.Signal{syscall.SIGTERM}
	w := newTestWorker(recorder, config, map[Type]Handler{
		testType: HandlerFunc(func(ctx context.Context, _ Task) (bool, error) {
			if calls.Add(1) == 1 {
				close(started)
			}
			<-release
			finished.Store(ctx.Err() == nil)
			return true, nil
		}),
	})
	runErr := startWorker(t, context.Background(), w)

	for i := 0; i < 5; i++ {
		w.AddTask(NewTask("queued", testPayload{kind: testType}))
	}
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	require.Eventually(t, func() bool { return w.State() == StateShuttingDown },
		time.Second, 5*time.Millisecond)
	close(release)

	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the signal")
	}

	assert.True(t, finished.Load(), "in-flight handler ran to completion")
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, recorder.count(testType, StatusSuccess))
	assert.Equal(t, 0, recorder.activeTasks())
	assert.Equal(t, StateStopped, w.State())
	<-w.Done()
}

func TestWorker_PeriodicHealthChecks(t *testing.T) {
	recorder := newFakeRecorder()
	config := testWorkerConfig()
	config.HealthInterval = 20 * time.Millisecond
	w := newTestWorker(recorder, config, nil)
	runErr := startWorker(t, context.Background(), w)

	require.Eventually(t, func() bool {
		return recorder.count(TypeHealthCheck, StatusSuccess) >= 3
	}, 2*time.Second, 10*time.Millisecond)

	assert.NoError(t, shutdownWorker(t, w, runErr))
}

func TestWorker_ParentContextCanceled(t *testing.T) {
	recorder := newFakeRecorder()
	w := newTestWorker(recorder, testWorkerConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	runErr := startWorker(t, ctx, w)

	cancel()

	select {
	case err := <-runErr:
		assert.NoError(t, err, "cancellation is a normal stop")
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, StateStopped, w.State())
	<-w.Done()
}

func TestWorker_RunTwice(t *testing.T) {
	w := newTestWorker(newFakeRecorder(), testWorkerConfig(), nil)
	runErr := startWorker(t, context.Background(), w)

	assert.ErrorIs(t, w.Run(context.Background()), ErrWorkerStarted)

	assert.NoError(t, shutdownWorker(t, w, runErr))
	assert.ErrorIs(t, w.Run(context.Background()), ErrWorkerStopped)
}

func TestWorker_ShutdownBeforeRun(t *testing.T) {
	w := newTestWorker(newFakeRecorder(), testWorkerConfig(), nil)

	require.NoError(t, w.Shutdown(context.Background()))

	assert.Equal(t, StateStopped, w.State())
	select {
	case <-w.Done():
	default:
		t.Fatal("Done should be closed")
	}
	assert.ErrorIs(t, w.Run(context.Background()), ErrWorkerStopped)
	assert.NoError(t, w.Shutdown(context.Background()), "shutdown is idempotent")
}

func TestWorker_ShutdownWaitTimesOut(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	w := newTestWorker(newFakeRecorder(), testWorkerConfig(), map[Type]Handler{
		testType: HandlerFunc(func(context.Context, Task) (bool, error) {
			close(started)
			<-release
			return true, nil
		}),
	})
	runErr := startWorker(t, context.Background(), w)
	w.AddTask(NewTask("slow", testPayload{kind: testType}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := w.Shutdown(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateShuttingDown, w.State())

	close(release)
	assert.NoError(t, <-runErr)
	assert.Equal(t, StateStopped, w.State())
}

// fakeResponder blocks in ListenAndServe until Shutdown, like *http.Server.
type fakeResponder struct {
	listenErr error
	stopped   chan struct{}
	once      sync.Once
	shutdowns atomic.Int32
}

func newFakeResponder(listenErr error) *fakeResponder {
	return &fakeResponder{listenErr: listenErr, stopped: make(chan struct{})}
}

func (r *fakeResponder) ListenAndServe() error {
	if r.listenErr != nil {
		return r.listenErr
	}
	<-r.stopped
	return http.ErrServerClosed
}

func (r *fakeResponder) Shutdown(context.Context) error {
	r.shutdowns.Add(1)
	r.once.Do(func() { close(r.stopped) })
	return nil
}

func TestWorker_ResponderLifecycle(t *testing.T) {
	responder := newFakeResponder(nil)
	w := newTestWorker(newFakeRecorder(), testWorkerConfig(), nil)
	w.SetResponder(responder)
	runErr := startWorker(t, context.Background(), w)

	assert.NoError(t, shutdownWorker(t, w, runErr))
	assert.Equal(t, int32(1), responder.shutdowns.Load())
}

func TestWorker_ResponderFailureStopsWorker(t *testing.T) {
	recorder := newFakeRecorder()
	w := newTestWorker(recorder, testWorkerConfig(), nil)
	w.SetResponder(newFakeResponder(errors.New("address already in use")))

	err := w.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics responder failed")
	assert.Contains(t, err.Error(), "address already in use")
	assert.Equal(t, StateStopped, w.State())
	assert.False(t, recorder.isHealthy())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "shutting_down", StateShuttingDown.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "state(9)", State(9).String())
}

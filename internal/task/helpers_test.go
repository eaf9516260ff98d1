package task

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// fakeRecorder captures everything the engine reports.
type fakeRecorder struct {
	mu         sync.Mutex
	processed  map[Type]map[Status]int
	retried    map[Type]int
	durations  map[Type]int
	active     int
	maxActive  int
	healthy    bool
	healthSets []bool
	queueDepth int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		processed: make(map[Type]map[Status]int),
		retried:   make(map[Type]int),
		durations: make(map[Type]int),
	}
}

func (r *fakeRecorder) TaskProcessed(taskType Type, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.processed[taskType] == nil {
		r.processed[taskType] = make(map[Status]int)
	}
	r.processed[taskType][status]++
}

func (r *fakeRecorder) TaskRetried(taskType Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retried[taskType]++
}

func (r *fakeRecorder) ObserveDuration(taskType Type, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations[taskType]++
}

func (r *fakeRecorder) TaskStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active++
	if r.active > r.maxActive {
		r.maxActive = r.active
	}
}

func (r *fakeRecorder) TaskFinished() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active--
}

func (r *fakeRecorder) SetHealthy(healthy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.healthy = healthy
	r.healthSets = append(r.healthSets, healthy)
}

func (r *fakeRecorder) SetQueueDepth(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queueDepth = n
}

func (r *fakeRecorder) count(taskType Type, status Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processed[taskType][status]
}

func (r *fakeRecorder) retries(taskType Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retried[taskType]
}

func (r *fakeRecorder) observed(taskType Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.durations[taskType]
}

func (r *fakeRecorder) activeTasks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *fakeRecorder) isHealthy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.healthy
}

func (r *fakeRecorder) depth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queueDepth
}

var _ Recorder = (*fakeRecorder)(nil)

// testPayload is a payload variant for task types the tests register themselves.
type testPayload struct {
	kind Type
}

func (p testPayload) Kind() Type { return p.kind }

package metrics

import (
	"net/http"
	"time"

	"github.com/phrazzld/mcp-worker/internal/task"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "mcp_worker"

// Metrics records task engine observations as Prometheus collectors held in
// a private registry. It implements task.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	tasksProcessed *prometheus.CounterVec
	tasksRetried   *prometheus.CounterVec
	taskDuration   *prometheus.HistogramVec
	activeTasks    prometheus.Gauge
	workerHealth   prometheus.Gauge
	queueDepth     prometheus.Gauge
}

// New creates the collectors under namespace and registers them, together
// with the Go runtime and process collectors, in a new registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tasksProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_processed_total",
			Help:      "Total tasks processed",
		}, []string{"task_type", "status"}),
		tasksRetried: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_retried_total",
			Help:      "Total tasks requeued after a failed attempt",
		}, []string{"task_type"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Task processing duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"task_type"}),
		activeTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_tasks",
			Help:      "Number of active tasks",
		}),
		workerHealth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "health",
			Help:      "Worker health status (1=healthy, 0=unhealthy)",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Number of tasks waiting in the queue",
		}),
	}

	m.registry.MustRegister(
		m.tasksProcessed,
		m.tasksRetried,
		m.taskDuration,
		m.activeTasks,
		m.workerHealth,
		m.queueDepth,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler returns the scrape endpoint for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// TaskProcessed implements task.Recorder.
func (m *Metrics) TaskProcessed(taskType task.Type, status task.Status) {
	m.tasksProcessed.WithLabelValues(string(taskType), string(status)).Inc()
}

// TaskRetried implements task.Recorder.
func (m *Metrics) TaskRetried(taskType task.Type) {
	m.tasksRetried.WithLabelValues(string(taskType)).Inc()
}

// ObserveDuration implements task.Recorder.
func (m *Metrics) ObserveDuration(taskType task.Type, d time.Duration) {
	m.taskDuration.WithLabelValues(string(taskType)).Observe(d.Seconds())
}

// TaskStarted implements task.Recorder.
func (m *Metrics) TaskStarted() {
	m.activeTasks.Inc()
}

// TaskFinished implements task.Recorder.
func (m *Metrics) TaskFinished() {
	m.activeTasks.Dec()
}

// SetHealthy implements task.Recorder.
func (m *Metrics) SetHealthy(healthy bool) {
	if healthy {
		m.workerHealth.Set(1)
		return
	}
	m.workerHealth.Set(0)
}

// SetQueueDepth implements task.Recorder.
func (m *Metrics) SetQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

// Ensure Metrics implements task.Recorder
var _ task.Recorder = (*Metrics)(nil)

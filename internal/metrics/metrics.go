// Package metrics is an optional Prometheus instrumentation layer for a
// Pool: steal attempts/successes, queue depth, and task throughput. A
// Pool built without metrics configured never touches this package, so
// the dependency costs nothing when unused.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pool holds every counter and gauge a worker pool reports, registered
// against the provided registerer at construction.
type Pool struct {
	TasksSpawned   prometheus.Counter
	TasksPolled    prometheus.Counter
	TasksCompleted prometheus.Counter
	StealAttempts  prometheus.Counter
	StealSuccesses prometheus.Counter
	QueueDepth     *prometheus.GaugeVec
	PollLatency    prometheus.Histogram
}

// New registers a fresh set of pool metrics against reg, prefixing every
// metric name with prefix (typically the pool's configured name, so
// multiple pools in one process don't collide).
func New(reg prometheus.Registerer, prefix string) *Pool {
	factory := promauto.With(reg)
	return &Pool{
		TasksSpawned: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_tasks_spawned_total",
			Help: "Total tasks spawned onto this pool.",
		}),
		TasksPolled: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_tasks_polled_total",
			Help: "Total Poll invocations across all workers.",
		}),
		TasksCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_tasks_completed_total",
			Help: "Total tasks whose Poll returned ready.",
		}),
		StealAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_steal_attempts_total",
			Help: "Total steal rounds attempted by any worker.",
		}),
		StealSuccesses: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_steal_successes_total",
			Help: "Total steal rounds that took at least one task.",
		}),
		QueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: prefix + "_queue_depth",
			Help: "Approximate queued task count per worker.",
		}, []string{"worker"}),
		PollLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    prefix + "_poll_latency_seconds",
			Help:    "Wall time spent inside a single Poll call.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

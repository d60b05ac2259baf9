package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики Prometheus. Экспортируются на /metrics endpoint панели.
var (
	backendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipedeck_backend_requests_total",
		Help: "Requests to the pipeline backend by operation and outcome",
	}, []string{"operation", "outcome"})

	backendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipedeck_backend_request_duration_seconds",
		Help:    "Duration of pipeline backend requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	pollTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipedeck_poll_ticks_total",
		Help: "Status poll ticks issued by the execution controller",
	})

	staleSnapshots = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipedeck_stale_snapshots_discarded_total",
		Help: "Status snapshots discarded because a newer poll response was already applied",
	})

	runsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipedeck_runs_started_total",
		Help: "Pipeline runs started through the panel",
	})

	runsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipedeck_runs_finished_total",
		Help: "Pipeline runs observed at a terminal status, by status",
	}, []string{"status"})
)

// ObserveBackendRequest учитывает один запрос к backend.
func ObserveBackendRequest(operation, outcome string, d time.Duration) {
	backendRequests.WithLabelValues(operation, outcome).Inc()
	backendRequestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncPollTick учитывает один тик poll-цикла.
func IncPollTick() {
	pollTicks.Inc()
}

// IncStaleSnapshot учитывает отброшенный устаревший снимок статуса.
func IncStaleSnapshot() {
	staleSnapshots.Inc()
}

// IncRunStarted учитывает запущенный через панель run.
func IncRunStarted() {
	runsStarted.Inc()
}

// IncRunFinished учитывает run, достигший терминального статуса.
func IncRunFinished(status string) {
	runsFinished.WithLabelValues(status).Inc()
}

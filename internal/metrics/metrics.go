package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tracks dataset load attempts by source and outcome.
	DatasetLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_loads_total",
			Help: "Total number of dataset load attempts (by source and result).",
		},
		[]string{"source", "result"}, // result = "ok" | "missing" | "schema" | "error"
	)

	// Measures duration of spreadsheet parse + reconciliation passes.
	DatasetLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dataset_load_duration_seconds",
			Help:    "Duration of dataset load and reconciliation in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
		},
		[]string{"source"},
	)

	// Counts rows silently dropped for unparseable date or price cells.
	RowsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_rows_dropped_total",
			Help: "Rows discarded during load because a date or price cell failed to parse.",
		},
		[]string{"source", "reason"}, // reason = "date" | "price"
	)

	// Tracks snapshot cache hits and misses in the store.
	SnapshotCacheAccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_cache_access_total",
			Help: "Number of hits/misses against the cached dataset snapshots.",
		},
		[]string{"source", "result"}, // hit | miss | error
	)

	// Tracks NATS messages published by subject and result.
	NATSMessageCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_total",
			Help: "Total number of NATS messages published.",
		},
		[]string{"subject", "result"}, // result = "ok" | "error"
	)

	NATSMessageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nats_message_latency_seconds",
			Help:    "Time taken to publish NATS messages",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"subject"},
	)

	// Tracks total errors (aggregated).
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "priceintel_errors_total",
			Help: "Count of service-level errors by component.",
		},
		[]string{"component", "reason"},
	)

	// Gauges the last successful reload time per source (seconds since epoch).
	LastReloadTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dataset_last_reload_timestamp",
			Help: "Timestamp (unix seconds) of the last successful dataset reload.",
		},
		[]string{"source"},
	)
)

// IncError increments the aggregated error counter for a component.
func IncError(component, reason string) {
	ErrorsTotal.WithLabelValues(component, reason).Inc()
}

// IncNATSMessage records the outcome of one publish attempt.
func IncNATSMessage(subject, result string) {
	NATSMessageCount.WithLabelValues(subject, result).Inc()
}

// ObserveDuration records elapsed time since start against a histogram.
func ObserveDuration(h *prometheus.HistogramVec, start time.Time, labels ...string) {
	h.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
}

package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics are a supplementary, process-local view; the event-log record
// written by Recorder remains the durable provenance source of truth.
var (
	MetricQueryTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "patina",
		Name:      "query_total",
		Help:      "Total scry queries served, by mode.",
	}, []string{"mode"})

	MetricQueryLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "patina",
		Name:      "query_latency_seconds",
		Help:      "Query Engine latency by mode.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"mode"})

	MetricOracleDispatch = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "patina",
		Name:      "oracle_dispatch_total",
		Help:      "Oracle dispatch outcomes, by oracle and outcome (ok, error, unavailable).",
	}, []string{"oracle", "outcome"})

	MetricUseTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "patina",
		Name:      "use_total",
		Help:      "Total scry.use events recorded.",
	})

	MetricFeedbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "patina",
		Name:      "feedback_total",
		Help:      "Total scry.feedback events recorded, by signal.",
	}, []string{"signal"})

	MetricIngestThroughput = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "patina",
		Name:      "ingest_events_total",
		Help:      "Events appended to the log, by event_type.",
	}, []string{"event_type"})
)

// Register adds every metric to reg. No package in this repository calls
// it, cmd/patina included.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(MetricQueryTotal, MetricQueryLatency, MetricOracleDispatch,
		MetricUseTotal, MetricFeedbackTotal, MetricIngestThroughput)
}

// Package observability holds the Prometheus collectors shared by the bridge.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pagesReadCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthbridge",
		Subsystem: "reader",
		Name:      "pages_read_total",
		Help:      "Number of record pages fetched from the native store per record kind.",
	}, []string{"kind"})

	recordsReadCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthbridge",
		Subsystem: "reader",
		Name:      "records_read_total",
		Help:      "Number of raw records fetched from the native store per record kind.",
	}, []string{"kind"})

	fetchFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthbridge",
		Subsystem: "reader",
		Name:      "fetch_failures_total",
		Help:      "Number of failed native store reads per operation.",
	}, []string{"op"})

	enrichmentFailureCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "healthbridge",
		Subsystem: "normalize",
		Name:      "enrichment_failures_total",
		Help:      "Number of workouts whose secondary fetch failed and were emitted without enrichment.",
	})

	methodCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthbridge",
		Subsystem: "bridge",
		Name:      "method_calls_total",
		Help:      "Number of bridge method calls by method and outcome.",
	}, []string{"method", "outcome"})

	methodDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "healthbridge",
		Subsystem: "bridge",
		Name:      "method_duration_seconds",
		Help:      "Latency of bridge method calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

func init() {
	prometheus.MustRegister(
		pagesReadCounter,
		recordsReadCounter,
		fetchFailureCounter,
		enrichmentFailureCounter,
		methodCounter,
		methodDuration,
	)
}

// Method call outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeNegative = "negative"
	OutcomeError    = "error"
)

// RecordPage counts one fetched page and its records.
func RecordPage(kind string, records int) {
	pagesReadCounter.WithLabelValues(kind).Inc()
	recordsReadCounter.WithLabelValues(kind).Add(float64(records))
}

// RecordFetchFailure counts a failed store read. op is "read" or "aggregate".
func RecordFetchFailure(op string) {
	fetchFailureCounter.WithLabelValues(op).Inc()
}

// RecordEnrichmentFailure counts a workout emitted without enrichment.
func RecordEnrichmentFailure() {
	enrichmentFailureCounter.Inc()
}

// RecordMethod counts a bridge method call and observes its latency.
func RecordMethod(method, outcome string, elapsed time.Duration) {
	methodCounter.WithLabelValues(method, outcome).Inc()
	methodDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AIRequestLatency records AI gateway call latency by operation and outcome.
	AIRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "audiovault_ai_request_latency_seconds",
		Help:    "AI analysis request latency in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
	}, []string{"operation", "outcome"})

	// StorageOperations counts object store calls by operation and outcome.
	StorageOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audiovault_storage_operations_total",
		Help: "Total number of object store operations",
	}, []string{"operation", "outcome"})

	// FeedEntriesServed tracks the size of assembled feed pages.
	FeedEntriesServed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "audiovault_feed_page_entries",
		Help:    "Number of entries returned per feed page",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
	})

	// KeepAlivePings counts self-ping attempts by outcome.
	KeepAlivePings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audiovault_keepalive_pings_total",
		Help: "Total number of keep-alive self pings",
	}, []string{"outcome"})
)

// Outcome maps an error into the "ok"/"error" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveAI records the latency of one AI call started at start.
func ObserveAI(operation string, start time.Time, err error) {
	AIRequestLatency.WithLabelValues(operation, Outcome(err)).Observe(time.Since(start).Seconds())
}

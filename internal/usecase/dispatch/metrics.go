package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for delivery pipeline monitoring
var (
	// deliveryEnqueuedTotal tracks tasks handed to the queue per kind
	deliveryEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_delivery_enqueued_total",
			Help: "Total number of delivery tasks enqueued",
		},
		[]string{"kind"},
	)

	// deliveryAttemptsTotal tracks executed delivery attempts per kind
	deliveryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_delivery_attempts_total",
			Help: "Total number of delivery attempts executed",
		},
		[]string{"kind"},
	)

	// deliveryOutcomesTotal tracks attempt outcomes per kind and status
	deliveryOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_delivery_outcomes_total",
			Help: "Total number of delivery attempt outcomes",
		},
		[]string{"kind", "status"}, // status: success or an error type tag
	)

	// deliveryDuration tracks end-to-end attempt duration
	deliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alert_delivery_duration_seconds",
			Help:    "Delivery attempt duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10}, // bounded by the 5s HTTP timeout
		},
		[]string{"kind"},
	)
)

// RecordEnqueued records a delivery task handed to the queue.
//
// Parameters:
//   - kind: The task kind (e.g., "dispatch.alert")
func RecordEnqueued(kind string) {
	deliveryEnqueuedTotal.WithLabelValues(kind).Inc()
}

// RecordAttempt records an executed delivery attempt.
//
// Parameters:
//   - kind: The task kind
func RecordAttempt(kind string) {
	deliveryAttemptsTotal.WithLabelValues(kind).Inc()
}

// RecordOutcome records the outcome of a delivery attempt along with its
// duration.
//
// Parameters:
//   - kind: The task kind
//   - status: "success" or the failure's error type tag
//   - duration: The time the attempt took
func RecordOutcome(kind, status string, duration time.Duration) {
	deliveryOutcomesTotal.WithLabelValues(kind, status).Inc()
	deliveryDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

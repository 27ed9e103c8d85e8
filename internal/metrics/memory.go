package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation outcome labels.
const (
	StatusOK       = "ok"
	StatusNotFound = "not_found"
	StatusInvalid  = "invalid"
	StatusCanceled = "canceled"
	StatusError    = "error"
)

// Memory connector Prometheus metrics.
var (
	MemoryOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esmemory",
			Name:      "memory_operations_total",
			Help:      "Total number of memory connector operations",
		},
		[]string{"op", "status"},
	)

	MemoryOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "esmemory",
			Name:      "memory_operation_duration_seconds",
			Help:      "Memory connector operation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"op"},
	)

	MemorySearchHits = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "esmemory",
			Name:      "memory_search_hits",
			Help:      "Number of hits returned by the engine per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 500},
		},
		[]string{"op"},
	)
)

var memMetricsOnce sync.Once

// RegisterMemoryMetrics registers Prometheus memory connector metrics. Safe to call more than once.
func RegisterMemoryMetrics() {
	memMetricsOnce.Do(func() {
		prometheus.MustRegister(MemoryOperationsTotal)
		prometheus.MustRegister(MemoryOperationDuration)
		prometheus.MustRegister(MemorySearchHits)
	})
}

// ObserveOperation records the outcome and latency of one connector operation.
func ObserveOperation(op, status string, started time.Time) {
	MemoryOperationsTotal.WithLabelValues(op, status).Inc()
	MemoryOperationDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devflow_mutations_total",
		Help: "Mutations by operation and outcome",
	}, []string{"op", "outcome"})

	mutationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "devflow_mutation_duration_seconds",
		Help:    "Mutation latency including the atomic scope",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	atomicAborts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devflow_atomic_aborts_total",
		Help: "Atomic scopes rolled back",
	})

	invalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devflow_cache_invalidations_total",
		Help: "Change events delivered to the page cache",
	}, []string{"source"})
)

// ObserveMutation records the outcome and latency of one operation.
func ObserveMutation(op string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	mutationTotal.WithLabelValues(op, outcome).Inc()
	mutationDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func AtomicAbort() {
	atomicAborts.Inc()
}

func Invalidation(source string) {
	invalidations.WithLabelValues(source).Inc()
}

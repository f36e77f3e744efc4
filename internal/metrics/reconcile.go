// Package metrics holds the Prometheus collectors of gasdb. Collectors are
// package-level; Register adds them to the default registry once.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gasdb"

// Reconciliation Prometheus metrics.
var (
	DocumentsFetchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_fetched_total",
			Help:      "Documents returned by document sources",
		},
		[]string{"collection"},
	)

	DocumentsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_dropped_total",
			Help:      "Documents removed by the validity filter",
		},
		[]string{"collection"},
	)

	EmptyResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "empty_results_total",
			Help:      "Fetches that produced no valid documents",
		},
		[]string{"collection"},
	)

	UnattemptedCandidates = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unattempted_candidates",
			Help:      "Catalog sites not yet simulated, per adsorbate, as of the last query",
		},
		[]string{"adsorbate"},
	)

	MergeOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_outcomes_total",
			Help:      "Low-coverage surface resolutions by merge state",
		},
		[]string{"state"},
	)

	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of reconciliation operations in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 300},
		},
		[]string{"operation"},
	)
)

var registerOnce sync.Once

// Register registers every gasdb collector with the default registry. Safe to
// call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			DocumentsFetchedTotal,
			DocumentsDroppedTotal,
			EmptyResultsTotal,
			UnattemptedCandidates,
			MergeOutcomesTotal,
			OperationDuration,
			httpRequestDuration,
			httpRequestsTotal,
			httpRequestsInFlight,
		)
	})
}

// ObserveDuration records the time since start under operation.
// Typical use: defer metrics.ObserveDuration("unsimulated", time.Now()).
func ObserveDuration(operation string, start time.Time) {
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

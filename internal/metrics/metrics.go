// Package metrics exposes the Prometheus collectors shared across the
// consistency engine. Collectors are registered at import time via promauto
// and served by the /metrics endpoint on the HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store client metrics
	StoreRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_operation_retries_total",
		Help: "Total number of store operations retried after a transient failure",
	}, []string{"store"})

	StoreFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_operation_failures_total",
		Help: "Total number of store operations that exhausted all retry attempts",
	}, []string{"store"})

	// Sync metrics
	SyncOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_operations_total",
		Help: "Total number of entity sync operations by intent and outcome",
	}, []string{"intent", "outcome"})

	LockAcquisitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_lock_acquisitions_total",
		Help: "Total number of distributed lock acquisition attempts by outcome",
	}, []string{"outcome"})

	CacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_cache_invalidations_total",
		Help: "Total number of cache keys removed by sync and reconcile operations",
	})

	// Reconciliation metrics
	ReconcileRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_runs_total",
		Help: "Total number of full reconciliation sweeps by outcome",
	}, []string{"outcome"})

	ReconcileRepairs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_repairs_total",
		Help: "Total number of projections repaired during reconciliation by direction",
	}, []string{"direction"})

	ReconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reconcile_duration_seconds",
		Help:    "Duration of full reconciliation sweeps in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// Batch executor metrics
	BatchRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_transaction_runs_total",
		Help: "Total number of cross-store batch executions by outcome",
	}, []string{"outcome"})

	BatchRollbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_transaction_rollbacks_total",
		Help: "Total number of compensation runs triggered by a failed batch step",
	}, []string{"outcome"})
)

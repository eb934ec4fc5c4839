// Package metrics exposes the Prometheus collectors of the ledger server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpcRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitledger_rpc_requests_total",
			Help: "Total number of RPC requests labeled by procedure and code",
		},
		[]string{"procedure", "code"},
	)
	rpcDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "splitledger_rpc_duration_seconds",
			Help:    "Duration of RPC requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"procedure"},
	)
	splitInvariantViolationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "splitledger_split_invariant_violations_total",
			Help: "Total number of computed splits that did not sum to the expense amount",
		},
	)
	settlementTransfers = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "splitledger_settlement_transfers",
			Help:    "Number of transfers suggested per settlement query",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
	)
	balanceCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitledger_balance_cache_total",
			Help: "Balance cache lookups labeled by result (hit, miss, error)",
		},
		[]string{"result"},
	)
	eventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitledger_events_published_total",
			Help: "Expense events published labeled by type and status",
		},
		[]string{"type", "status"},
	)
)

// RecordRPC increments request counters and records duration.
func RecordRPC(procedure, code string, duration time.Duration) {
	if procedure == "" {
		procedure = "unknown"
	}
	if code == "" {
		code = "ok"
	}

	rpcRequestsTotal.WithLabelValues(procedure, code).Inc()
	rpcDurationSeconds.WithLabelValues(procedure).Observe(duration.Seconds())
}

// RecordSplitInvariantViolation counts a split whose shares did not reconcile.
func RecordSplitInvariantViolation() {
	splitInvariantViolationsTotal.Inc()
}

// RecordSettlement records how many transfers a settlement produced.
func RecordSettlement(transfers int) {
	settlementTransfers.Observe(float64(transfers))
}

// RecordCacheLookup counts a balance cache lookup; result is hit, miss or error.
func RecordCacheLookup(result string) {
	balanceCacheTotal.WithLabelValues(result).Inc()
}

// RecordEvent counts a published expense event; status is ok or error.
func RecordEvent(eventType, status string) {
	eventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}

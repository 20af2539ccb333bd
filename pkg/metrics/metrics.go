// Package metrics defines the Prometheus collectors for the ledger engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecomputeDuration tracks how long a full balance recompute takes,
	// labeled by the mutation that triggered it.
	RecomputeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "splitkaro",
		Subsystem: "ledger",
		Name:      "recompute_duration_seconds",
		Help:      "Duration of full balance recomputes.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"trigger"})

	// ExpenseOps counts expense mutations by operation and outcome.
	ExpenseOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "splitkaro",
		Subsystem: "ledger",
		Name:      "expense_operations_total",
		Help:      "Expense create/update/delete operations.",
	}, []string{"op", "status"})

	// SettlementsRecorded counts recorded settlement payments.
	SettlementsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "splitkaro",
		Subsystem: "ledger",
		Name:      "settlements_recorded_total",
		Help:      "Settlement payments recorded.",
	})

	// ConsistencyFaults counts detected zero-sum violations. This should
	// stay at zero; any increment indicates a projection or rounding defect.
	ConsistencyFaults = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "splitkaro",
		Subsystem: "ledger",
		Name:      "consistency_faults_total",
		Help:      "Recomputes rejected because balances did not sum to zero.",
	})
)

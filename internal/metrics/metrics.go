package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActionsTotal counts economy actions by kind and outcome.
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plunder_actions_total",
		Help: "Economy actions processed, by action and outcome.",
	}, []string{"action", "outcome"})

	// ActionDuration tracks end-to-end handler latency per action.
	ActionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plunder_action_duration_seconds",
		Help:    "Handler latency per economy action.",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})

	// TxConflicts counts serialization conflicts surfaced to callers after
	// retries were exhausted.
	TxConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plunder_tx_conflicts_total",
		Help: "Transactions aborted after exhausting serialization retries.",
	})

	// HeistsResolved counts worker-side heist settlements by result.
	HeistsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plunder_heists_resolved_total",
		Help: "Heists settled by the background worker, by result.",
	}, []string{"result"})
)

package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	claimedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settler_orders_claimed_total",
		Help: "Orders claimed for processing.",
	})
	settledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settler_orders_settled_total",
		Help: "Orders settled, by close reason.",
	}, []string{"reason"})
	failedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settler_orders_failed_total",
		Help: "Orders that failed processing.",
	})
	claimErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settler_claim_errors_total",
		Help: "Claim transactions that failed.",
	})
	processSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "settler_order_process_seconds",
		Help:    "Per-order processing time.",
		Buckets: prometheus.DefBuckets,
	})
)

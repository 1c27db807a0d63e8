package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCommitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_orders_committed_total",
			Help: "Orders committed, by source (direct or cart)",
		},
		[]string{"source"},
	)

	ordersRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_orders_rejected_total",
			Help: "Orders rejected, by error code",
		},
		[]string{"code"},
	)

	priceMismatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_price_mismatch_total",
		Help: "Order lines whose declared price diverged from the catalog",
	})

	stockRollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_stock_rollbacks_total",
			Help: "Compensating stock restorations, by outcome",
		},
		[]string{"outcome"},
	)
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersTotal counts orders handed to the engine by symbol, side and type.
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_orders_total",
			Help: "Total number of orders submitted for matching",
		},
		[]string{"symbol", "side", "type"},
	)

	// OrdersRejectedTotal counts orders rejected before matching.
	OrdersRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_orders_rejected_total",
			Help: "Total number of orders rejected by validation",
		},
		[]string{"reason"},
	)

	// TradesTotal counts settled trades.
	TradesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_trades_total",
			Help: "Total number of settled trades by symbol",
		},
		[]string{"symbol"},
	)

	// TradedQuantity sums settled quantity.
	TradedQuantity = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_traded_quantity_total",
			Help: "Total settled quantity by symbol",
		},
		[]string{"symbol"},
	)

	// SettlementFailures counts settlements that rolled back.
	SettlementFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_settlement_failures_total",
			Help: "Total number of failed settlements by symbol",
		},
		[]string{"symbol"},
	)

	// BookDepth tracks the number of price levels per side.
	BookDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "engine_orderbook_depth",
			Help: "Current number of price levels",
		},
		[]string{"symbol", "side"},
	)

	// RestingOrders tracks the number of resting orders per side.
	RestingOrders = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "engine_resting_orders",
			Help: "Current number of resting orders",
		},
		[]string{"symbol", "side"},
	)

	// MatchDuration measures a full match cycle including settlement I/O.
	MatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_match_duration_seconds",
			Help:    "Duration of one match cycle in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"symbol"},
	)

	// HTTPRequestDuration tracks request latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "path", "status"},
	)
)

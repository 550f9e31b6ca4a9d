// Package metrics exposes Prometheus instrumentation for the quoting agent.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MidPrice = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mm_market_mid_price",
		Help: "Last observed mid price",
	})
	VolatilityAnnualized = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mm_market_volatility_annualized",
		Help: "Internal annualized realized volatility estimate",
	})
	VolatilityRegime = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mm_market_volatility_regime",
		Help: "Volatility regime (0=low 1=normal 2=high 3=extreme)",
	})

	ReservationPrice = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mm_strategy_reservation_price",
		Help: "Inventory-adjusted indifference price",
	})
	QuotedSpread = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mm_strategy_quoted_spread",
		Help: "Full spread of the last emitted quote pair",
	})

	InventoryNet = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mm_inventory_net",
		Help: "Signed net position",
	})
	InventoryRisk = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mm_inventory_risk",
		Help: "Position utilization of the cap, 0..1",
	})

	ToxicityScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mm_toxicity_score",
		Help: "Decaying adverse-selection score, 0..1",
	})
	DrawdownPercent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mm_risk_drawdown_percent",
		Help: "Current drawdown from peak session PnL",
	})
	SessionPnL = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mm_session_pnl",
		Help: "Running session PnL fed to the circuit breaker",
	})

	QuotesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mm_quotes_generated_total",
		Help: "Quotes emitted, by side",
	}, []string{"side"})
	QuotesSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mm_quotes_suppressed_total",
		Help: "Quote cycles that produced nothing, by reason",
	}, []string{"reason"})
	FillsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mm_fills_processed_total",
		Help: "Fill events applied to inventory, by side",
	}, []string{"side"})
	BreakerTrips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mm_breaker_trips_total",
		Help: "Circuit breaker activations",
	})
)

// UpdateMarketMetrics publishes per-tick market observations.
func UpdateMarketMetrics(mid, vol float64, regime int) {
	MidPrice.Set(mid)
	VolatilityAnnualized.Set(vol)
	VolatilityRegime.Set(float64(regime))
}

// UpdateStrategyMetrics publishes the model outputs of the last cycle.
func UpdateStrategyMetrics(reservationPrice, spread float64) {
	ReservationPrice.Set(reservationPrice)
	QuotedSpread.Set(spread)
}

// UpdateInventoryMetrics publishes the position snapshot.
func UpdateInventoryMetrics(net, invRisk float64) {
	InventoryNet.Set(net)
	InventoryRisk.Set(invRisk)
}

// UpdateRiskMetrics publishes toxicity and breaker observations.
func UpdateRiskMetrics(toxicity, drawdown, pnl float64) {
	ToxicityScore.Set(toxicity)
	DrawdownPercent.Set(drawdown)
	SessionPnL.Set(pnl)
}

func IncrementQuotesGenerated(side string) { QuotesGenerated.WithLabelValues(side).Inc() }

func IncrementQuotesSuppressed(reason string) { QuotesSuppressed.WithLabelValues(reason).Inc() }

func IncrementFills(side string) { FillsProcessed.WithLabelValues(side).Inc() }

// StartMetricsServer serves /metrics on addr in a background goroutine.
func StartMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}

// Package metrics exposes Prometheus metrics for the quoting engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QuotesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mm_quotes_generated_total",
		Help: "Two-sided quotes generated, by symbol.",
	}, []string{"symbol"})

	QuoteUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mm_quote_updates_total",
		Help: "Quote update decisions, by symbol and reason.",
	}, []string{"symbol", "reason"})

	FillsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mm_fills_processed_total",
		Help: "Fills applied to inventory, by symbol and side.",
	}, []string{"symbol", "side"})

	SpreadBps = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mm_spread_bps",
		Help: "Current optimal spread in basis points, by symbol.",
	}, []string{"symbol"})

	InventoryPosition = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mm_inventory_position",
		Help: "Signed position, by symbol.",
	}, []string{"symbol"})

	InventoryRatio = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mm_inventory_ratio",
		Help: "Position over max position, by symbol.",
	}, []string{"symbol"})

	AdverseRate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mm_adverse_selection_rate",
		Help: "Adverse fill ratio over the detection window, by symbol.",
	}, []string{"symbol"})

	StuffingScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mm_stuffing_score",
		Help: "Quote stuffing score 0-100, by symbol.",
	}, []string{"symbol"})

	RiskBreaches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mm_risk_breaches_total",
		Help: "Risk limit breaches, by type.",
	}, []string{"type"})

	PortfolioVaR = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mm_portfolio_var",
		Help: "Largest per-instrument parametric VaR.",
	})

	ConcentrationScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mm_concentration_score",
		Help: "Book concentration score 0-100.",
	})

	StaleSnapshots = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mm_stale_snapshots_total",
		Help: "Market snapshots rejected as stale, by symbol.",
	}, []string{"symbol"})
)

// ObserveQuote records a freshly generated quote.
func ObserveQuote(symbol string, spreadBps float64) {
	QuotesGenerated.WithLabelValues(symbol).Inc()
	SpreadBps.WithLabelValues(symbol).Set(spreadBps)
}

// ObserveFill records an applied fill and the resulting inventory.
func ObserveFill(symbol, side string, position, ratio float64) {
	FillsProcessed.WithLabelValues(symbol, side).Inc()
	InventoryPosition.WithLabelValues(symbol).Set(position)
	InventoryRatio.WithLabelValues(symbol).Set(ratio)
}

// ObserveDetectors records the per-symbol detector readings.
func ObserveDetectors(symbol string, adverseRate float64, stuffingScore int) {
	AdverseRate.WithLabelValues(symbol).Set(adverseRate)
	StuffingScore.WithLabelValues(symbol).Set(float64(stuffingScore))
}

// ObserveRisk records the portfolio readout of a risk sweep.
func ObserveRisk(maxVaR, concentration float64) {
	PortfolioVaR.Set(maxVaR)
	ConcentrationScore.Set(concentration)
}

// StartMetricsServer serves /metrics on addr in the background.
func StartMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}

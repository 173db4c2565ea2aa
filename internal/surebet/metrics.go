package surebet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EvaluationsTotal tracks evaluated events by verdict.
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surebet_evaluations_total",
			Help: "Total number of event evaluations",
		},
		[]string{"verdict"},
	)

	// DegeneratePricesTotal counts degenerate-price evaluation failures.
	// Any increment here is a data-integrity bug upstream of the evaluator.
	DegeneratePricesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surebet_degenerate_prices_total",
		Help: "Total number of evaluations rejected for non-positive prices",
	})

	// ProfitMarginPercent tracks detected surebet margins.
	ProfitMarginPercent = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "surebet_profit_margin_percent",
		Help:    "Profit margin of detected surebets in percent",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	})

	// QueryDurationSeconds tracks the latency of full surebet scans.
	QueryDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "surebet_query_duration_seconds",
		Help:    "Duration of surebet list queries",
		Buckets: prometheus.DefBuckets,
	})

	// QueryCacheHitsTotal counts list queries served from cache.
	QueryCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surebet_query_cache_hits_total",
		Help: "Total number of surebet list queries served from cache",
	})
)

package circuitbreaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BreakerEnabled indicates whether upstream fetches are allowed.
	BreakerEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "surebet_quota_breaker_enabled",
		Help: "Whether the quota breaker allows upstream fetches (1=enabled, 0=disabled)",
	})

	// BreakerQuotaRemaining tracks the last reported remaining request quota.
	BreakerQuotaRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "surebet_quota_breaker_remaining",
		Help: "Last remaining request quota reported by The Odds API",
	})

	// BreakerDisableThreshold tracks the current floor for disabling fetches.
	BreakerDisableThreshold = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "surebet_quota_breaker_disable_threshold",
		Help: "Current remaining-quota floor for disabling fetches (dynamically calculated)",
	})

	// BreakerEnableThreshold tracks the current threshold for re-enabling fetches.
	BreakerEnableThreshold = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "surebet_quota_breaker_enable_threshold",
		Help: "Current remaining-quota threshold for re-enabling fetches (with hysteresis)",
	})

	// BreakerAvgFetchCost tracks the rolling average quota cost per fetch.
	BreakerAvgFetchCost = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "surebet_quota_breaker_avg_fetch_cost",
		Help: "Rolling average quota cost of recent fetches (used for threshold calculation)",
	})

	// BreakerStateChanges tracks the number of state transitions.
	BreakerStateChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surebet_quota_breaker_state_changes_total",
		Help: "Total number of times the quota breaker changed state",
	})
)

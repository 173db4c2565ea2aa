package circuitbreaker

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// QuotaCircuitBreaker guards The Odds API request quota. It disables fetching
// before the monthly quota runs dry and re-enables it with hysteresis so the
// state does not flap around the threshold. The disable floor is derived from
// the cost of recent fetches, never below an absolute minimum.
type QuotaCircuitBreaker struct {
	enabled atomic.Bool

	fetchMultiplier float64 // floor = avg fetch cost * multiplier
	minAbsolute     float64 // absolute minimum remaining quota
	hysteresisRatio float64 // re-enable at ratio * disable floor
	logger          *zap.Logger

	mu               sync.RWMutex
	lastRemaining    float64
	lastUpdate       time.Time
	recentCosts      []float64 // rolling window of per-fetch quota costs
	disableThreshold float64
	enableThreshold  float64
}

// Config holds quota circuit breaker configuration.
type Config struct {
	FetchMultiplier float64
	MinAbsolute     float64
	HysteresisRatio float64
	Logger          *zap.Logger
}

// Status holds current breaker state for debugging and HTTP endpoints.
type Status struct {
	Enabled          bool
	LastRemaining    float64
	LastUpdate       time.Time
	DisableThreshold float64
	EnableThreshold  float64
	AvgFetchCost     float64
	RecentFetchCount int
}

// New creates a quota circuit breaker. It starts enabled.
func New(cfg *Config) (*QuotaCircuitBreaker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.FetchMultiplier <= 0 {
		return nil, fmt.Errorf("fetch multiplier must be positive")
	}
	if cfg.MinAbsolute <= 0 {
		return nil, fmt.Errorf("min absolute must be positive")
	}
	if cfg.HysteresisRatio < 1.0 {
		return nil, fmt.Errorf("hysteresis ratio must be >= 1.0")
	}

	breaker := &QuotaCircuitBreaker{
		fetchMultiplier:  cfg.FetchMultiplier,
		minAbsolute:      cfg.MinAbsolute,
		hysteresisRatio:  cfg.HysteresisRatio,
		logger:           cfg.Logger,
		recentCosts:      make([]float64, 0, 20),
		disableThreshold: cfg.MinAbsolute,
		enableThreshold:  cfg.MinAbsolute * cfg.HysteresisRatio,
	}

	breaker.enabled.Store(true)

	BreakerEnabled.Set(1)
	BreakerDisableThreshold.Set(breaker.disableThreshold)
	BreakerEnableThreshold.Set(breaker.enableThreshold)
	BreakerAvgFetchCost.Set(0)

	return breaker, nil
}

// IsEnabled returns true if upstream fetches are allowed.
// Lock-free, safe to call from hot paths.
func (b *QuotaCircuitBreaker) IsEnabled() bool {
	return b.enabled.Load()
}

// RecordFetch adds one fetch's quota cost to the rolling window and
// recalculates the thresholds. Call after each successful fetch.
func (b *QuotaCircuitBreaker) RecordFetch(cost float64) {
	if cost <= 0 {
		b.logger.Warn("invalid-fetch-cost", zap.Float64("cost", cost))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Keep the last 20 fetches.
	b.recentCosts = append(b.recentCosts, cost)
	if len(b.recentCosts) > 20 {
		b.recentCosts = b.recentCosts[1:]
	}

	sum := 0.0
	for _, c := range b.recentCosts {
		sum += c
	}
	avgCost := sum / float64(len(b.recentCosts))

	b.disableThreshold = math.Max(avgCost*b.fetchMultiplier, b.minAbsolute)
	b.enableThreshold = b.disableThreshold * b.hysteresisRatio

	BreakerAvgFetchCost.Set(avgCost)
	BreakerDisableThreshold.Set(b.disableThreshold)
	BreakerEnableThreshold.Set(b.enableThreshold)

	b.logger.Debug("quota-thresholds-updated",
		zap.Float64("avg-fetch-cost", avgCost),
		zap.Int("fetch-count", len(b.recentCosts)),
		zap.Float64("disable-threshold", b.disableThreshold),
		zap.Float64("enable-threshold", b.enableThreshold))
}

// RecordQuota updates the breaker with the remaining quota reported by the
// upstream response headers and applies the state transition with hysteresis.
// The check and the transition happen under one write lock so concurrent
// calls cannot both observe the pre-transition state and transition twice.
func (b *QuotaCircuitBreaker) RecordQuota(remaining float64) {
	b.mu.Lock()
	b.lastRemaining = remaining
	b.lastUpdate = time.Now()

	disableThreshold := b.disableThreshold
	enableThreshold := b.enableThreshold
	currentlyEnabled := b.enabled.Load()

	shouldDisable := currentlyEnabled && remaining < disableThreshold
	shouldEnable := !currentlyEnabled && remaining >= enableThreshold

	if shouldDisable {
		b.enabled.Store(false)
	} else if shouldEnable {
		b.enabled.Store(true)
	}
	b.mu.Unlock()

	BreakerQuotaRemaining.Set(remaining)

	switch {
	case shouldDisable:
		BreakerEnabled.Set(0)
		BreakerStateChanges.Inc()

		b.logger.Warn("quota-breaker-disabled",
			zap.Float64("remaining", remaining),
			zap.Float64("disable-threshold", disableThreshold),
			zap.Float64("enable-threshold", enableThreshold))
	case shouldEnable:
		BreakerEnabled.Set(1)
		BreakerStateChanges.Inc()

		b.logger.Info("quota-breaker-enabled",
			zap.Float64("remaining", remaining),
			zap.Float64("disable-threshold", disableThreshold),
			zap.Float64("enable-threshold", enableThreshold))
	default:
		b.logger.Debug("quota-recorded",
			zap.Float64("remaining", remaining),
			zap.Bool("enabled", currentlyEnabled),
			zap.Float64("disable-threshold", disableThreshold),
			zap.Float64("enable-threshold", enableThreshold))
	}
}

// GetStatus returns the current breaker state.
func (b *QuotaCircuitBreaker) GetStatus() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()

	sum := 0.0
	for _, c := range b.recentCosts {
		sum += c
	}
	avgCost := 0.0
	if len(b.recentCosts) > 0 {
		avgCost = sum / float64(len(b.recentCosts))
	}

	return Status{
		Enabled:          b.enabled.Load(),
		LastRemaining:    b.lastRemaining,
		LastUpdate:       b.lastUpdate,
		DisableThreshold: b.disableThreshold,
		EnableThreshold:  b.enableThreshold,
		AvgFetchCost:     avgCost,
		RecentFetchCount: len(b.recentCosts),
	}
}

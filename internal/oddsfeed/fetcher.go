package oddsfeed

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/oddsradar/surebet/internal/circuitbreaker"
	"github.com/oddsradar/surebet/pkg/types"
	"go.uber.org/zap"
)

// ErrFeedDisabled is returned when the quota breaker has disabled upstream
// fetches. Callers back off until the quota recovers.
var ErrFeedDisabled = errors.New("odds feed disabled by quota breaker")

// Fetcher combines the upstream client, the quota breaker and the payload
// transformation into one fetch operation. The breaker learns the quota cost
// of each fetch from the usage headers and trips before the quota runs dry.
type Fetcher struct {
	client  *Client
	breaker *circuitbreaker.QuotaCircuitBreaker
	logger  *zap.Logger

	mu            sync.Mutex
	lastRemaining float64
	hasBaseline   bool
}

// NewFetcher creates a fetcher. The breaker may be nil to fetch unguarded
// (one-shot CLI use).
func NewFetcher(client *Client, breaker *circuitbreaker.QuotaCircuitBreaker, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client:  client,
		breaker: breaker,
		logger:  logger,
	}
}

// Fetch pulls upcoming odds from the upstream and returns them as ingestion
// payloads. Returns ErrFeedDisabled without touching the upstream when the
// quota breaker is open.
func (f *Fetcher) Fetch(ctx context.Context) ([]types.EventPayload, *Usage, error) {
	if f.breaker != nil && !f.breaker.IsEnabled() {
		return nil, nil, ErrFeedDisabled
	}

	apiEvents, usage, err := f.client.FetchUpcomingOdds(ctx)
	if err != nil {
		return nil, nil, err
	}

	f.recordUsage(usage)

	return Transform(apiEvents, f.logger), usage, nil
}

// recordUsage feeds the quota headers into the breaker. The per-fetch cost is
// the drop in remaining quota since the previous fetch; the first fetch only
// establishes the baseline.
func (f *Fetcher) recordUsage(usage *Usage) {
	if f.breaker == nil || usage == nil {
		return
	}

	remaining, err := strconv.ParseFloat(usage.Remaining, 64)
	if err != nil {
		f.logger.Warn("unparseable-quota-header",
			zap.String("remaining", usage.Remaining))
		return
	}

	f.mu.Lock()
	if f.hasBaseline && remaining < f.lastRemaining {
		f.breaker.RecordFetch(f.lastRemaining - remaining)
	}
	f.lastRemaining = remaining
	f.hasBaseline = true
	f.mu.Unlock()

	f.breaker.RecordQuota(remaining)
}

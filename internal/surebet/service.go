package surebet

import (
	"context"
	"sort"
	"time"

	"github.com/oddsradar/surebet/internal/storage"
	"github.com/oddsradar/surebet/pkg/cache"
	"go.uber.org/zap"
)

const cacheKey = "surebets:latest"

// Config holds query service configuration.
type Config struct {
	// MinProfitMargin filters out surebets below this margin (percent).
	MinProfitMargin float64
	// CacheTTL bounds how stale a cached surebet list may be.
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// Service answers "what are the current arbitrage opportunities?". Reads are
// point-in-time snapshots; they are not serialized against in-flight
// ingestion.
type Service struct {
	store  storage.EventStore
	cache  cache.Cache
	config Config
	logger *zap.Logger
}

// NewService creates a surebet query service. The cache may be nil, in which
// case every query scans the repository.
func NewService(cfg Config, store storage.EventStore, queryCache cache.Cache) *Service {
	return &Service{
		store:  store,
		cache:  queryCache,
		config: cfg,
		logger: cfg.Logger,
	}
}

// ListSurebets scans all events with at least two outcomes, evaluates each,
// and returns the profitable ones ranked by profit margin descending
// (external ID ascending on exact ties). Returns an empty slice, not an
// error, when nothing qualifies.
func (s *Service) ListSurebets(ctx context.Context) ([]Opportunity, error) {
	if s.cache != nil {
		cached, found := s.cache.Get(cacheKey)
		if found {
			if opps, ok := cached.([]Opportunity); ok {
				QueryCacheHitsTotal.Inc()
				return opps, nil
			}
		}
	}

	start := time.Now()

	events, err := s.store.ListEventsWithMinOutcomes(ctx, 2)
	if err != nil {
		return nil, err
	}

	opportunities := []Opportunity{}
	for _, event := range events {
		result, err := Evaluate(event.Outcomes)
		if err != nil {
			// Degenerate data slipped past ingestion validation. Loud signal,
			// skip the event rather than poisoning the ranking.
			DegeneratePricesTotal.Inc()
			s.logger.Error("degenerate-price-in-repository",
				zap.String("external-id", event.ExternalID),
				zap.Error(err))
			continue
		}

		if !result.IsSurebet {
			EvaluationsTotal.WithLabelValues("no_surebet").Inc()
			continue
		}
		if result.ProfitMargin < s.config.MinProfitMargin {
			EvaluationsTotal.WithLabelValues("below_min_margin").Inc()
			continue
		}

		EvaluationsTotal.WithLabelValues("surebet").Inc()
		ProfitMarginPercent.Observe(result.ProfitMargin)
		opportunities = append(opportunities, NewOpportunity(*event, result))
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		if opportunities[i].ProfitMargin != opportunities[j].ProfitMargin {
			return opportunities[i].ProfitMargin > opportunities[j].ProfitMargin
		}
		return opportunities[i].Event.ExternalID < opportunities[j].Event.ExternalID
	})

	QueryDurationSeconds.Observe(time.Since(start).Seconds())

	s.logger.Debug("surebet-scan-complete",
		zap.Int("events-scanned", len(events)),
		zap.Int("surebets-found", len(opportunities)))

	if s.cache != nil {
		s.cache.Set(cacheKey, opportunities, s.config.CacheTTL)
	}

	return opportunities, nil
}

// Invalidate drops the cached surebet list. Called after every successful
// ingestion so queries pick up fresh odds.
func (s *Service) Invalidate() {
	if s.cache != nil {
		s.cache.Delete(cacheKey)
	}
}

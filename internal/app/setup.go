package app

import (
	"context"
	"fmt"

	"github.com/oddsradar/surebet/internal/circuitbreaker"
	"github.com/oddsradar/surebet/internal/ingest"
	"github.com/oddsradar/surebet/internal/notify"
	"github.com/oddsradar/surebet/internal/oddsfeed"
	"github.com/oddsradar/surebet/internal/storage"
	"github.com/oddsradar/surebet/internal/surebet"
	"github.com/oddsradar/surebet/pkg/cache"
	"github.com/oddsradar/surebet/pkg/config"
	"github.com/oddsradar/surebet/pkg/healthprobe"
	"github.com/oddsradar/surebet/pkg/httpserver"
	"go.uber.org/zap"
)

// New creates a new application instance with all components wired. The
// repository, query cache and notification hub are constructed here and
// owned by the app; there is no ambient global state.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	store, err := setupStore(ctx, cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup store: %w", err)
	}

	queryCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	hub := notify.NewHub(logger)

	surebets := surebet.NewService(surebet.Config{
		MinProfitMargin: cfg.SurebetMinProfitMargin,
		CacheTTL:        cfg.SurebetCacheTTL,
		Logger:          logger,
	}, store, queryCache)

	coordinator := ingest.New(ingest.Config{
		WriteTimeout: cfg.IngestWriteTimeout,
		Logger:       logger,
	}, store, surebets, hub)

	fetcher, err := setupFetcher(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup fetcher: %w", err)
	}

	health := healthprobe.New()

	httpServer := httpserver.New(&httpserver.Config{
		Port:        cfg.HTTPPort,
		Logger:      logger,
		Health:      health,
		Coordinator: coordinator,
		Surebets:    surebets,
		Store:       store,
		Hub:         hub,
		Fetcher:     fetcher,
	})

	return &App{
		cfg:         cfg,
		logger:      logger,
		health:      health,
		httpServer:  httpServer,
		store:       store,
		queryCache:  queryCache,
		surebets:    surebets,
		coordinator: coordinator,
		hub:         hub,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

func setupStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	if cfg.StorageMode == "postgres" {
		pgStore, err := storage.NewPostgresStore(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres store: %w", err)
		}

		err = pgStore.Migrate(ctx)
		if err != nil {
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
		return pgStore, nil
	}

	logger.Info("using-in-memory-store",
		zap.String("note", "data is lost on restart, set STORAGE_MODE=postgres for persistence"))
	return storage.NewMemoryStore(logger), nil
}

// setupFetcher builds the quota-guarded odds feed fetcher. The fetcher is
// always wired; a missing API key surfaces as an error on the fetch endpoint,
// not at startup.
func setupFetcher(cfg *config.Config, logger *zap.Logger) (*oddsfeed.Fetcher, error) {
	breaker, err := circuitbreaker.New(&circuitbreaker.Config{
		FetchMultiplier: cfg.QuotaFetchMultiplier,
		MinAbsolute:     cfg.QuotaMinRemaining,
		HysteresisRatio: cfg.QuotaHysteresisRatio,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create quota breaker: %w", err)
	}

	client := oddsfeed.NewClient(oddsfeed.Config{
		BaseURL: cfg.OddsAPIBaseURL,
		APIKey:  cfg.OddsAPIKey,
		Regions: cfg.OddsAPIRegions,
		Markets: cfg.OddsAPIMarkets,
		Timeout: cfg.OddsAPITimeout,
		Logger:  logger,
	})

	return oddsfeed.NewFetcher(client, breaker, logger), nil
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      logger,
	})
}

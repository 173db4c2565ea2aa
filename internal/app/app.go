package app

import (
	"context"
	"sync"

	"github.com/oddsradar/surebet/internal/ingest"
	"github.com/oddsradar/surebet/internal/notify"
	"github.com/oddsradar/surebet/internal/storage"
	"github.com/oddsradar/surebet/internal/surebet"
	"github.com/oddsradar/surebet/pkg/cache"
	"github.com/oddsradar/surebet/pkg/config"
	"github.com/oddsradar/surebet/pkg/healthprobe"
	"github.com/oddsradar/surebet/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg         *config.Config
	logger      *zap.Logger
	health      *healthprobe.Checker
	httpServer  *httpserver.Server
	store       storage.Store
	queryCache  cache.Cache
	surebets    *surebet.Service
	coordinator *ingest.Coordinator
	hub         *notify.Hub
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// Package di provides dependency injection for service implementations.
package di

import (
	"context"

	"github.com/aristath/fundwatch/internal/clients/eastmoney"
	"github.com/aristath/fundwatch/internal/clients/strategy"
	"github.com/aristath/fundwatch/internal/config"
	"github.com/aristath/fundwatch/internal/events"
	"github.com/aristath/fundwatch/internal/modules/charts"
	"github.com/aristath/fundwatch/internal/modules/holdings"
	"github.com/aristath/fundwatch/internal/modules/market_hours"
	"github.com/aristath/fundwatch/internal/modules/strategies"
	fundsync "github.com/aristath/fundwatch/internal/modules/sync"
	"github.com/aristath/fundwatch/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices creates clients and services. Backups are only set up
// when a bucket is configured; a bucket that cannot be reached disables them
// with a warning instead of failing startup.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) {
	// Clients
	container.EastmoneyClient = eastmoney.NewClient(cfg.EastmoneyConfig(), container.ClientDataRepo, log)
	container.StrategyClient = strategy.NewClient(cfg.Strategy.APIURL, cfg.Strategy.Timeout.Duration, log)

	container.EventBus = events.NewBus(log)

	// Holdings and sync depend on each other through the estimate refresh hook
	container.HoldingsService = holdings.NewService(container.HoldingsRepo, container.EastmoneyClient, log)
	container.SyncService = fundsync.NewService(
		container.HoldingsRepo,
		container.HistoryRepo,
		container.EastmoneyClient,
		container.EastmoneyClient,
		cfg.Sync.Concurrency,
		log,
	)
	container.HoldingsService.SetEstimateRefresher(container.SyncService)
	container.HoldingsService.SetEventBus(container.EventBus)
	container.SyncService.SetEventBus(container.EventBus)

	container.ChartsService = charts.NewService(container.HistoryRepo, container.HoldingsRepo, log)
	container.StrategiesService = strategies.NewService(container.SignalRepo, container.HoldingsRepo, container.StrategyClient, log)
	container.MarketHoursService = market_hours.NewMarketHoursService(cfg.Market.Holidays...)

	s3Cfg := cfg.S3Config()
	if !s3Cfg.Configured() {
		log.Debug().Msg("Backup bucket not configured - backups disabled")
	} else if s3Client, err := reliability.NewS3Client(ctx, s3Cfg, log); err != nil {
		log.Warn().Err(err).Msg("Failed to initialize S3 client - backups disabled")
	} else {
		container.BackupService = reliability.NewBackupService(s3Client, container.Databases(), cfg.DataDir, log)
		log.Info().Str("bucket", s3Cfg.Bucket).Msg("Backup service initialized")
	}

	log.Info().Msg("Services initialized")
}

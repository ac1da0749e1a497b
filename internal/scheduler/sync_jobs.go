package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	estimateSyncTimeout = 2 * time.Minute
	historySyncTimeout  = 30 * time.Minute
)

// EstimateSyncJob refreshes the realtime estimate overlay of every holding.
// With a market clock set it only runs while the market is open.
type EstimateSyncJob struct {
	syncer EstimateSyncer
	market MarketClock
	now    func() time.Time
	log    zerolog.Logger
}

// NewEstimateSyncJob creates the estimate sync job. market may be nil to run
// on every tick.
func NewEstimateSyncJob(syncer EstimateSyncer, market MarketClock, log zerolog.Logger) *EstimateSyncJob {
	return &EstimateSyncJob{
		syncer: syncer,
		market: market,
		now:    time.Now,
		log:    log.With().Str("job", "estimate_sync").Logger(),
	}
}

// Name returns the job name
func (j *EstimateSyncJob) Name() string {
	return "estimate_sync"
}

// Run executes the estimate sync
func (j *EstimateSyncJob) Run() error {
	if j.market != nil && !j.market.IsMarketOpen(j.now()) {
		j.log.Debug().Msg("Market closed, skipping estimate sync")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), estimateSyncTimeout)
	defer cancel()

	result, err := j.syncer.SyncAllHoldingsEstimates(ctx)
	if err != nil {
		return err
	}

	j.log.Info().
		Int("total", result.Total).
		Int("success", result.Success).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("Estimate sync finished")
	return nil
}

// HistorySyncJob pulls new confirmed NAV records for every holding
type HistorySyncJob struct {
	syncer HistorySyncer
	log    zerolog.Logger
}

// NewHistorySyncJob creates the history sync job
func NewHistorySyncJob(syncer HistorySyncer, log zerolog.Logger) *HistorySyncJob {
	return &HistorySyncJob{
		syncer: syncer,
		log:    log.With().Str("job", "history_sync").Logger(),
	}
}

// Name returns the job name
func (j *HistorySyncJob) Name() string {
	return "history_sync"
}

// Run executes the history sync
func (j *HistorySyncJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), historySyncTimeout)
	defer cancel()

	result, err := j.syncer.SyncAllHoldingsHistory(ctx)
	if err != nil {
		return err
	}

	j.log.Info().
		Int("total", result.Total).
		Int("success", result.Success).
		Int("failed", result.Failed).
		Int("records", result.Records).
		Msg("History sync finished")
	return nil
}

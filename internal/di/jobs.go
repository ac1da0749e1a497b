// Package di provides dependency injection for scheduled jobs.
package di

import (
	"fmt"

	"github.com/aristath/fundwatch/internal/clientdata"
	"github.com/aristath/fundwatch/internal/config"
	"github.com/aristath/fundwatch/internal/modules/cleanup"
	"github.com/aristath/fundwatch/internal/reliability"
	"github.com/aristath/fundwatch/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the background jobs and registers them on the
// container's scheduler using the configured schedules.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	container.Scheduler = scheduler.New(log)
	instances := &JobInstances{}

	// Job 1: Estimate sync, gated on trading sessions unless disabled
	var clock scheduler.MarketClock
	if cfg.Sync.EstimatesDuringMarketHours {
		clock = container.MarketHoursService
	}
	instances.EstimateSync = scheduler.NewEstimateSyncJob(container.SyncService, clock, log)

	// Job 2: Confirmed NAV history sync
	instances.HistorySync = scheduler.NewHistorySyncJob(container.SyncService, log)

	// Job 3: Strategy run, only when a strategy service is configured
	if container.StrategyClient.Configured() {
		instances.StrategyRun = scheduler.NewStrategyRunJob(container.StrategiesService, cfg.Strategy.SignalRetention.Duration, log)
	} else {
		log.Debug().Msg("Strategy service not configured - strategy job not registered")
	}

	// Job 4: Expired cache cleanup
	instances.ClientDataCleanup = clientdata.NewCleanupJob(container.ClientDataRepo, log)

	// Job 5: NAV history for funds no longer held
	instances.HistoryCleanup = cleanup.NewHistoryCleanupJob(container.HoldingsRepo, container.HistoryRepo, log)

	// Job 6: Integrity, WAL and disk checks
	instances.DatabaseMaintenance = reliability.NewDatabaseMaintenanceJob(container.Databases(), cfg.DataDir, log)

	// Job 7: Remote backup and rotation
	if container.BackupService != nil {
		instances.Backup = reliability.NewBackupJob(container.BackupService, cfg.Backup.RetentionDays, log)
	}

	type scheduled struct {
		schedule string
		job      scheduler.Job
	}
	schedules := []scheduled{
		{cfg.Schedules.Estimates, instances.EstimateSync},
		{cfg.Schedules.History, instances.HistorySync},
		{cfg.Schedules.Cleanup, instances.ClientDataCleanup},
		{cfg.Schedules.Cleanup, instances.HistoryCleanup},
		{cfg.Schedules.Maintenance, instances.DatabaseMaintenance},
	}
	if instances.StrategyRun != nil {
		schedules = append(schedules, scheduled{cfg.Schedules.Strategies, instances.StrategyRun})
	}
	if instances.Backup != nil {
		schedules = append(schedules, scheduled{cfg.Schedules.Backup, instances.Backup})
	}

	for _, s := range schedules {
		if err := container.Scheduler.AddJob(s.schedule, s.job); err != nil {
			return nil, fmt.Errorf("failed to register %s job: %w", s.job.Name(), err)
		}
	}

	log.Info().Int("jobs", len(container.Scheduler.Jobs())).Msg("Jobs registered")
	return instances, nil
}

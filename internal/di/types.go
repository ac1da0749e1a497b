/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server for access to services.
 */
package di

import (
	"github.com/aristath/fundwatch/internal/clientdata"
	"github.com/aristath/fundwatch/internal/clients/eastmoney"
	"github.com/aristath/fundwatch/internal/clients/strategy"
	"github.com/aristath/fundwatch/internal/database"
	"github.com/aristath/fundwatch/internal/events"
	"github.com/aristath/fundwatch/internal/modules/charts"
	"github.com/aristath/fundwatch/internal/modules/cleanup"
	"github.com/aristath/fundwatch/internal/modules/holdings"
	"github.com/aristath/fundwatch/internal/modules/market_hours"
	"github.com/aristath/fundwatch/internal/modules/navhistory"
	"github.com/aristath/fundwatch/internal/modules/strategies"
	fundsync "github.com/aristath/fundwatch/internal/modules/sync"
	"github.com/aristath/fundwatch/internal/reliability"
	"github.com/aristath/fundwatch/internal/scheduler"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Databases: portfolio (holdings, NAV history, signals) and client_data (upstream cache)
 * - Clients: eastmoney NAV source, strategy signal service
 * - Repositories: data access layer
 * - Services: valuation, sync, charts, strategies, market hours, backups
 * - Event bus: holding and sync notifications for the stream endpoint
 * - Scheduler: cron driven background jobs
 */
type Container struct {
	// Databases
	PortfolioDB  *database.DB
	ClientDataDB *database.DB

	// Clients
	EastmoneyClient *eastmoney.Client
	StrategyClient  *strategy.Client

	// Repositories
	ClientDataRepo *clientdata.Repository
	HoldingsRepo   *holdings.Repository
	HistoryRepo    *navhistory.Repository
	SignalRepo     *strategies.Repository

	// Services
	HoldingsService    *holdings.Service
	SyncService        *fundsync.Service
	ChartsService      *charts.Service
	StrategiesService  *strategies.Service
	MarketHoursService *market_hours.MarketHoursService
	BackupService      *reliability.BackupService // nil when no bucket is configured

	EventBus *events.Bus

	Scheduler *scheduler.Scheduler
}

// Databases returns the open databases in a stable order
func (c *Container) Databases() []*database.DB {
	var dbs []*database.DB
	for _, db := range []*database.DB{c.PortfolioDB, c.ClientDataDB} {
		if db != nil {
			dbs = append(dbs, db)
		}
	}
	return dbs
}

// Close closes every open database
func (c *Container) Close() {
	for _, db := range c.Databases() {
		_ = db.Close()
	}
}

// JobInstances holds the registered job instances for manual triggering
type JobInstances struct {
	EstimateSync        *scheduler.EstimateSyncJob
	HistorySync         *scheduler.HistorySyncJob
	StrategyRun         *scheduler.StrategyRunJob
	ClientDataCleanup   *clientdata.CleanupJob
	HistoryCleanup      *cleanup.HistoryCleanupJob
	DatabaseMaintenance *reliability.DatabaseMaintenanceJob
	Backup              *reliability.BackupJob // nil when backups are disabled
}

// All returns the non-nil jobs
func (j *JobInstances) All() []scheduler.Job {
	var jobs []scheduler.Job
	if j.EstimateSync != nil {
		jobs = append(jobs, j.EstimateSync)
	}
	if j.HistorySync != nil {
		jobs = append(jobs, j.HistorySync)
	}
	if j.StrategyRun != nil {
		jobs = append(jobs, j.StrategyRun)
	}
	if j.ClientDataCleanup != nil {
		jobs = append(jobs, j.ClientDataCleanup)
	}
	if j.HistoryCleanup != nil {
		jobs = append(jobs, j.HistoryCleanup)
	}
	if j.DatabaseMaintenance != nil {
		jobs = append(jobs, j.DatabaseMaintenance)
	}
	if j.Backup != nil {
		jobs = append(jobs, j.Backup)
	}
	return jobs
}

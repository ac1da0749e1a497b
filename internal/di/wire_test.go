package di

import (
	"context"
	"testing"

	"github.com/aristath/fundwatch/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWire(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Strategy.APIURL = "http://localhost:9000"

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	assert.NotNil(t, container.HoldingsService)
	assert.NotNil(t, container.SyncService)
	assert.NotNil(t, container.ChartsService)
	assert.NotNil(t, container.StrategiesService)
	assert.NotNil(t, container.MarketHoursService)
	assert.Nil(t, container.BackupService, "no bucket configured")
	assert.NotNil(t, container.Scheduler)
	assert.NotNil(t, container.EventBus)

	assert.NotNil(t, jobs.EstimateSync)
	assert.NotNil(t, jobs.HistorySync)
	assert.NotNil(t, jobs.StrategyRun)
	assert.NotNil(t, jobs.ClientDataCleanup)
	assert.NotNil(t, jobs.HistoryCleanup)
	assert.NotNil(t, jobs.DatabaseMaintenance)
	assert.Nil(t, jobs.Backup)
	assert.Len(t, jobs.All(), 6)
}

func TestWire_WithBackupBucket(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Backup.Bucket = "fund-backups"
	cfg.Backup.Endpoint = "http://127.0.0.1:9"
	cfg.Backup.AccessKeyID = "key"
	cfg.Backup.SecretAccessKey = "secret"

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	assert.NotNil(t, container.BackupService)
	assert.NotNil(t, jobs.Backup)
}

package di

import (
	"path/filepath"
	"testing"

	"github.com/aristath/fundwatch/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeDatabases(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.Default()
	cfg.DataDir = tmpDir

	container, err := InitializeDatabases(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	assert.NotNil(t, container.PortfolioDB)
	assert.NotNil(t, container.ClientDataDB)
	assert.Len(t, container.Databases(), 2)

	assert.FileExists(t, filepath.Join(tmpDir, "portfolio.db"))
	assert.FileExists(t, filepath.Join(tmpDir, "client_data.db"))

	// schemas are applied
	var count int
	require.NoError(t, container.PortfolioDB.Conn().QueryRow("SELECT COUNT(*) FROM holdings").Scan(&count))
	require.NoError(t, container.ClientDataDB.Conn().QueryRow("SELECT COUNT(*) FROM fund_estimates").Scan(&count))
}

func TestInitializeDatabases_InvalidPath(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = "/proc/fundwatch/does/not/exist"

	_, err := InitializeDatabases(cfg, zerolog.Nop())
	assert.Error(t, err)
}

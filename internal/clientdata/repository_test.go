package clientdata

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/fundwatch/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedEstimate struct {
	Code string `msgpack:"code"`
	Nav  string `msgpack:"nav"`
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "test_"+database.NameClientData+".db"),
		Profile: database.ProfileCache,
		Name:    database.NameClientData,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())
	return NewRepository(db.Conn())
}

// stored reports whether key has a row in the estimate table, expired or not
func stored(t *testing.T, repo *Repository, key string, v interface{}) bool {
	t.Helper()
	found, err := repo.load(TableFundEstimates, v, "SELECT data FROM "+TableFundEstimates+" WHERE code = ?", key)
	require.NoError(t, err)
	return found
}

func TestStoreAndGetIfFresh(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Store(TableFundEstimates, "000001", cachedEstimate{Code: "000001", Nav: "1.2345"}, time.Minute))

	var got cachedEstimate
	found, err := repo.GetIfFresh(TableFundEstimates, "000001", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "1.2345", got.Nav)
}

func TestGetIfFresh_MissingKey(t *testing.T) {
	repo := newTestRepository(t)

	var got cachedEstimate
	found, err := repo.GetIfFresh(TableFundEstimates, "999999", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetIfFresh_ExpiredIsMiss(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Store(TableFundEstimates, "000001", cachedEstimate{Code: "000001", Nav: "1.0"}, -time.Hour))

	var got cachedEstimate
	found, err := repo.GetIfFresh(TableFundEstimates, "000001", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, got.Nav)

	// the row stays until cleanup removes it
	assert.True(t, stored(t, repo, "000001", &got))
}

func TestStore_Overwrites(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Store(TableFundEstimates, "000001", cachedEstimate{Nav: "1.0"}, time.Minute))
	require.NoError(t, repo.Store(TableFundEstimates, "000001", cachedEstimate{Nav: "2.0"}, time.Minute))

	var got cachedEstimate
	found, err := repo.GetIfFresh(TableFundEstimates, "000001", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2.0", got.Nav)
}

func TestInvalidTableRejected(t *testing.T) {
	repo := newTestRepository(t)

	assert.Error(t, repo.Store("holdings; DROP TABLE x", "k", 1, time.Minute))
	_, err := repo.GetIfFresh("nope", "k", new(int))
	assert.Error(t, err)
	_, err = repo.DeleteExpired("nope")
	assert.Error(t, err)
}

func TestDeleteAllExpired(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Store(TableFundEstimates, "old", cachedEstimate{}, -time.Hour))
	require.NoError(t, repo.Store(TableFundEstimates, "new", cachedEstimate{}, time.Hour))

	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), results[TableFundEstimates])

	var got cachedEstimate
	assert.True(t, stored(t, repo, "new", &got))
	assert.False(t, stored(t, repo, "old", &got))
}

package sync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	stdsync "sync"
	"testing"
	"time"

	"github.com/aristath/fundwatch/internal/clientdata"
	"github.com/aristath/fundwatch/internal/clients/eastmoney"
	"github.com/aristath/fundwatch/internal/database"
	"github.com/aristath/fundwatch/internal/domain"
	"github.com/aristath/fundwatch/internal/modules/holdings"
	"github.com/aristath/fundwatch/internal/modules/navhistory"
	testingpkg "github.com/aristath/fundwatch/internal/testing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fundgzServer answers /js/<code>.js with a jsonpgz estimate, or 502 for
// codes marked down.
type fundgzServer struct {
	mu   stdsync.Mutex
	down map[string]bool
}

func (s *fundgzServer) setDown(codes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, code := range codes {
		s.down[code] = true
	}
}

func (s *fundgzServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/js/"), ".js")

	s.mu.Lock()
	down := s.down[code]
	s.mu.Unlock()
	if down {
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	fmt.Fprintf(w, `jsonpgz({"fundcode":"%s","name":"Fund %s","jzrq":"2024-01-04","dwjz":"1.0000","gsz":"1.0100","gszzl":"1.00","gztime":"2024-01-05 14:30"});`, code, code)
}

type upstreamFixture struct {
	svc      *Service
	holdings *holdings.Service
	repo     *holdings.Repository
	cache    *database.DB
	upstream *fundgzServer
}

func newUpstreamFixture(t *testing.T) *upstreamFixture {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	portfolio, _ := testingpkg.NewTestDB(t, database.NamePortfolio)
	cacheDB, _ := testingpkg.NewTestDB(t, database.NameClientData)

	upstream := &fundgzServer{down: map[string]bool{}}
	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	client := eastmoney.NewClient(eastmoney.Config{
		RealtimeBaseURL: server.URL,
		HistoryBaseURL:  server.URL,
		Timeout:         2 * time.Second,
	}, clientdata.NewRepository(cacheDB.Conn()), log)

	f := &upstreamFixture{
		repo:     holdings.NewRepository(portfolio.Conn(), log),
		cache:    cacheDB,
		upstream: upstream,
	}
	history := navhistory.NewRepository(portfolio.Conn(), log)
	f.holdings = holdings.NewService(f.repo, client, log)
	f.svc = NewService(f.repo, history, client, testingpkg.NewMockHistoryFetcher(), DefaultConcurrency, log)
	return f
}

// ageCache pushes every cached estimate past its expiry
func (f *upstreamFixture) ageCache(t *testing.T, age time.Duration) {
	t.Helper()
	_, err := f.cache.Conn().Exec(
		"UPDATE "+clientdata.TableFundEstimates+" SET expires_at = ?",
		time.Now().Add(-age).Unix(),
	)
	require.NoError(t, err)
}

func TestSyncAllHoldingsEstimates_ExpiredCacheCountsFailures(t *testing.T) {
	f := newUpstreamFixture(t)
	codes := testingpkg.NewFundCodes(5)
	for _, code := range codes {
		_, err := f.holdings.Create(context.Background(), holdings.CreateInput{
			Code:   code,
			Amount: decimal.NewFromInt(1000),
		})
		require.NoError(t, err)
	}

	f.ageCache(t, time.Hour)
	f.upstream.setDown(codes[1], codes[3])

	result, err := f.svc.SyncAllHoldingsEstimates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Total: 5, Success: 3, Failed: 2}, result)
}

func TestCreate_ExpiredCacheIsUpstreamUnavailable(t *testing.T) {
	f := newUpstreamFixture(t)
	ctx := context.Background()

	// seed a cache entry for 999999, then drop the holding again
	_, err := f.holdings.Create(ctx, holdings.CreateInput{Code: "999999", Amount: decimal.NewFromInt(1000)})
	require.NoError(t, err)
	require.NoError(t, f.holdings.Delete(ctx, "999999"))

	f.ageCache(t, 24*time.Hour)
	f.upstream.setDown("999999")

	_, err = f.holdings.Create(ctx, holdings.CreateInput{Code: "999999", Amount: decimal.NewFromInt(1000)})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindUpstreamUnavailable))

	h, err := f.repo.Get(ctx, "999999")
	require.NoError(t, err)
	assert.Nil(t, h)
}

package charts

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/aristath/fundwatch/internal/database"
	"github.com/aristath/fundwatch/internal/domain"
	"github.com/aristath/fundwatch/internal/modules/navhistory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

type codeList []string

func (c codeList) Codes(ctx context.Context) ([]string, error) { return c, nil }

// setupTestPortfolioDB creates an in-memory SQLite database with the portfolio schema
func setupTestPortfolioDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// every pooled connection would get its own in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	schema, err := database.SchemaSQL(database.NamePortfolio)
	require.NoError(t, err)
	_, err = db.Exec(schema)
	require.NoError(t, err)

	return db
}

// seedSeries stores navs on consecutive days starting at start
func seedSeries(t *testing.T, repo *navhistory.Repository, code, start string, navs ...string) {
	t.Helper()
	day, err := time.Parse(navhistory.DateLayout, start)
	require.NoError(t, err)

	records := make([]navhistory.Record, len(navs))
	for i, nav := range navs {
		records[i] = navhistory.Record{
			Code:    code,
			NavDate: day.AddDate(0, 0, i).Format(navhistory.DateLayout),
			Nav:     decimal.RequireFromString(nav),
		}
	}
	_, err = repo.InsertBatch(context.Background(), records)
	require.NoError(t, err)
}

func newTestService(t *testing.T, codes ...string) (*Service, *navhistory.Repository) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := navhistory.NewRepository(setupTestPortfolioDB(t), log)
	return NewService(repo, codeList(codes), log), repo
}

func TestHistoryWithMA(t *testing.T) {
	svc, repo := newTestService(t)
	seedSeries(t, repo, "000001", "2024-01-01", "1.0000", "1.1000", "1.2000", "1.3000", "1.4000")

	points, err := svc.HistoryWithMA(context.Background(), "000001", "", "", []int{3, 10})
	require.NoError(t, err)

	require.Len(t, points, 5)
	assert.Equal(t, "2024-01-01", points[0].Date)
	assert.Equal(t, "2024-01-05", points[4].Date)
	assert.Nil(t, points[1].MA)
	assert.Equal(t, 1.1, points[2].MA[3])
	assert.Equal(t, 1.3, points[4].MA[3])
	_, ok := points[4].MA[10]
	assert.False(t, ok)
}

func TestHistoryWithMA_DateRange(t *testing.T) {
	svc, repo := newTestService(t)
	seedSeries(t, repo, "000001", "2024-01-01", "1.0000", "1.1000", "1.2000", "1.3000", "1.4000")

	points, err := svc.HistoryWithMA(context.Background(), "000001", "2024-01-02", "2024-01-04", nil)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "2024-01-02", points[0].Date)
	assert.Equal(t, "2024-01-04", points[2].Date)
}

func TestHistoryWithMA_InvalidDate(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.HistoryWithMA(context.Background(), "000001", "01/02/2024", "", nil)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidInput))

	_, err = svc.HistoryWithMA(context.Background(), "", "", "", nil)
	assert.True(t, domain.IsKind(err, domain.KindInvalidInput))
}

func TestHistoryWithMA_UnknownCodeIsEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	points, err := svc.HistoryWithMA(context.Background(), "999999", "", "", []int{5})
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestGetIndicators(t *testing.T) {
	svc, repo := newTestService(t)

	navs := make([]string, 80)
	for i := range navs {
		navs[i] = decimal.NewFromFloat(1 + float64(i%7)*0.01).StringFixed(4)
	}
	seedSeries(t, repo, "000001", "2024-01-01", navs...)

	ind, err := svc.GetIndicators(context.Background(), "000001")
	require.NoError(t, err)

	assert.Equal(t, 80, ind.Points)
	assert.Equal(t, "2024-03-20", ind.LatestDate)
	require.NotNil(t, ind.LatestNav)
	assert.InDelta(t, 1.02, *ind.LatestNav, 1e-9)
	assert.NotNil(t, ind.RSI)
	assert.NotNil(t, ind.Bollinger)
	assert.NotNil(t, ind.MACD)
	require.NotNil(t, ind.Volatility)
	assert.Greater(t, *ind.Volatility, 0.0)
	assert.Less(t, ind.Drawdown, 0.0)
}

func TestGetIndicators_ShortSeries(t *testing.T) {
	svc, repo := newTestService(t)
	seedSeries(t, repo, "000001", "2024-01-01", "1.0000", "1.0100")

	ind, err := svc.GetIndicators(context.Background(), "000001")
	require.NoError(t, err)
	assert.Equal(t, 2, ind.Points)
	assert.Nil(t, ind.RSI)
	assert.Nil(t, ind.Bollinger)
	assert.Nil(t, ind.MACD)
	assert.Nil(t, ind.Volatility)
}

func TestGetSparklinesAggregated(t *testing.T) {
	svc, repo := newTestService(t, "000001", "000002")
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }

	// Mon 2024-01-08 .. Sun 2024-01-14 is ISO week 2
	seedSeries(t, repo, "000001", "2024-01-08", "1.0000", "2.0000", "3.0000")
	seedSeries(t, repo, "000001", "2024-01-15", "5.0000")
	// outside the 1Y window
	seedSeries(t, repo, "000001", "2022-06-01", "9.0000")

	result, err := svc.GetSparklinesAggregated(context.Background(), "1Y")
	require.NoError(t, err)

	require.Contains(t, result, "000001")
	assert.NotContains(t, result, "000002")
	assert.Equal(t, []ChartDataPoint{
		{Time: "2024-W02", Value: 2.0},
		{Time: "2024-W03", Value: 5.0},
	}, result["000001"])

	monthly, err := svc.GetSparklinesAggregated(context.Background(), "5Y")
	require.NoError(t, err)
	assert.Equal(t, []ChartDataPoint{
		{Time: "2022-06", Value: 9.0},
		{Time: "2024-01", Value: 2.75},
	}, monthly["000001"])
}

func TestGetSparklinesAggregated_InvalidPeriod(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetSparklinesAggregated(context.Background(), "2W")
	assert.True(t, domain.IsKind(err, domain.KindInvalidInput))
}

func TestStartDateForRange(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "2024-05-15", StartDateForRange("1M", now))
	assert.Equal(t, "2023-06-15", StartDateForRange("1Y", now))
	assert.Equal(t, "2014-06-15", StartDateForRange("10Y", now))
	assert.Equal(t, "", StartDateForRange("all", now))
	assert.Equal(t, "", StartDateForRange("", now))
}

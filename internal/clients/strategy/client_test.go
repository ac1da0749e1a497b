package strategy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", time.Second, zerolog.New(nil).Level(zerolog.Disabled))
}

func TestFetchSignal(t *testing.T) {
	var gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		_, _ = w.Write([]byte(`{
			"fund_code": "000001",
			"strategy_name": "macd",
			"signal": "BUY",
			"reason": "golden cross",
			"latest_date": "2024-01-05",
			"latest_close": 1.2345,
			"metrics": {"macd": 0.01}
		}`))
	})

	holding := true
	signal, err := client.FetchSignal(context.Background(), MACD, "000001", &holding)
	require.NoError(t, err)

	assert.Equal(t, "/strategies/macd/000001", gotPath)
	assert.Equal(t, "is_holding=true", gotQuery)
	assert.Equal(t, "BUY", signal.Signal)
	assert.Equal(t, "2024-01-05", signal.LatestDate)
	require.NotNil(t, signal.LatestClose)
	assert.Equal(t, "1.2345", signal.LatestClose.String())
	assert.JSONEq(t, `{"macd": 0.01}`, string(signal.Metrics))
}

func TestFetchSignal_NoHoldingParam(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"signal": "HOLD"}`))
	})

	signal, err := client.FetchSignal(context.Background(), RSI, "000001", nil)
	require.NoError(t, err)
	assert.Empty(t, gotQuery)
	assert.Equal(t, "000001", signal.FundCode)
	assert.Equal(t, RSI, signal.StrategyName)
}

func TestFetchSignal_ErrorDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail": "not enough history"}`))
	})

	_, err := client.FetchSignal(context.Background(), RSI, "000001", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough history")
	assert.Contains(t, err.Error(), "422")
}

func TestFetchSignal_EmptySignal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.FetchSignal(context.Background(), RSI, "000001", nil)
	assert.Error(t, err)
}

func TestFetchSignal_NotConfigured(t *testing.T) {
	client := NewClient("", 0, zerolog.New(nil).Level(zerolog.Disabled))

	assert.False(t, client.Configured())
	_, err := client.FetchSignal(context.Background(), RSI, "000001", nil)
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestNeedsHoldingStatus(t *testing.T) {
	assert.False(t, NeedsHoldingStatus(RSI))
	assert.True(t, NeedsHoldingStatus(BollingerBands))
	assert.True(t, NeedsHoldingStatus(MACross))
	assert.True(t, NeedsHoldingStatus(MACD))
	assert.Equal(t, []string{"rsi", "bollinger_bands", "ma_cross", "macd"}, All)
}

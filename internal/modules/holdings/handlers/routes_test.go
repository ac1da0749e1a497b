package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/fundwatch/internal/database"
	"github.com/aristath/fundwatch/internal/modules/holdings"
	testingpkg "github.com/aristath/fundwatch/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (chi.Router, *testingpkg.MockEstimator) {
	t.Helper()
	db, _ := testingpkg.NewTestDB(t, database.NamePortfolio)
	log := zerolog.New(nil).Level(zerolog.Disabled)

	estimator := testingpkg.NewMockEstimator()
	svc := holdings.NewService(holdings.NewRepository(db.Conn(), log), estimator, log)

	router := chi.NewRouter()
	NewHandler(svc, log).RegisterRoutes(router)
	return router, estimator
}

func do(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHoldingLifecycle(t *testing.T) {
	router, estimator := newTestRouter(t)
	estimator.SetEstimate("000001", testingpkg.NewEstimateFixture("000001", "Growth Fund", "1.2345", "1.2500"))

	rec := do(t, router, http.MethodPost, "/holdings", map[string]interface{}{
		"code":                "000001",
		"holding_amount":      10000,
		"holding_profit_rate": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created HoldingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Growth Fund", created.Name)
	assert.InDelta(t, 8100.4455, created.Shares, 1e-9)
	require.NotNil(t, created.HoldingProfitAmount)
	assert.InDelta(t, 909.09, *created.HoldingProfitAmount, 1e-9)
	require.NotNil(t, created.TodayEstimateAmount)
	assert.InDelta(t, 10125.56, *created.TodayEstimateAmount, 1e-9)

	rec = do(t, router, http.MethodPost, "/holdings", map[string]interface{}{"code": "000001", "holding_amount": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPut, "/holdings/000001", map[string]interface{}{"holding_amount": "2469"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated HoldingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.InDelta(t, 2000.0, updated.Shares, 1e-9)
	assert.Nil(t, updated.HoldingProfitRate)

	rec = do(t, router, http.MethodGet, "/holdings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []HoldingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = do(t, router, http.MethodDelete, "/holdings/000001", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/holdings/000001", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"not_found"`)
}

func TestCreate_ErrorStatuses(t *testing.T) {
	router, estimator := newTestRouter(t)
	estimator.SetEstimate("000002", testingpkg.NewEstimateFixture("000002", "F", "0", ""))

	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"missing amount", map[string]interface{}{"code": "000001"}, http.StatusBadRequest},
		{"negative amount", map[string]interface{}{"code": "000001", "holding_amount": -5}, http.StatusBadRequest},
		{"no upstream data", map[string]interface{}{"code": "000001", "holding_amount": 5}, http.StatusBadGateway},
		{"zero nav", map[string]interface{}{"code": "000002", "holding_amount": 5}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/holdings", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/holdings", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportImportRoundTrip(t *testing.T) {
	router, estimator := newTestRouter(t)
	estimator.SetEstimate("000001", testingpkg.NewEstimateFixture("000001", "F", "2.0000", ""))

	rec := do(t, router, http.MethodPost, "/holdings", map[string]interface{}{
		"code": "000001", "holding_amount": 100, "holding_profit_rate": 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodGet, "/holdings/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	exported := rec.Body.Bytes()
	assert.Contains(t, string(exported), `"holdingProfitRate":"5"`)

	var rows []holdings.ImportRow
	require.NoError(t, json.Unmarshal(exported, &rows))

	rec = do(t, router, http.MethodPost, "/holdings/import?overwrite=false", rows)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"imported":0,"skipped":1}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/holdings/import?overwrite=true", rows)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"imported":1,"skipped":0}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/holdings/import?overwrite=maybe", rows)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

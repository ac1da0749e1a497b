package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/fundwatch/internal/modules/market_hours"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() chi.Router {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	router := chi.NewRouter()
	NewHandler(market_hours.NewMarketHoursService("2024-10-01"), logger).RegisterRoutes(router)
	return router
}

func TestHandleGetStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/market-hours/status", nil)
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, market_hours.Exchange, data["exchange"])
	assert.Contains(t, data, "open")
}

func TestHandleGetHolidays(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/market-hours/holidays?year=2024", nil)
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data struct {
			Year     int      `json:"year"`
			Holidays []string `json:"holidays"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2024, response.Data.Year)
	assert.Equal(t, []string{"2024-10-01"}, response.Data.Holidays)
}

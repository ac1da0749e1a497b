// Package handlers provides HTTP handlers for NAV history and chart data.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/fundwatch/internal/domain"
	"github.com/aristath/fundwatch/internal/modules/charts"
	"github.com/aristath/fundwatch/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles history and chart HTTP requests
type Handler struct {
	service *charts.Service
	log     zerolog.Logger
}

// NewHandler creates a new charts handler
func NewHandler(service *charts.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "charts").Logger(),
	}
}

// HandleHistory returns the NAV series with moving averages.
// Query: from, to (YYYY-MM-DD), range (1M..10Y, used when from is empty), ma=5,10,20
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	q := r.URL.Query()

	windows, err := utils.ParseIntCSV(q.Get("ma"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "ma must be a comma separated list of integers")
		return
	}

	from := q.Get("from")
	if from == "" {
		from = charts.StartDateForRange(q.Get("range"), time.Now())
	}

	points, err := h.service.HistoryWithMA(r.Context(), code, from, q.Get("to"), windows)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"code":   code,
		"count":  len(points),
		"points": points,
	})
}

// HandleIndicators returns the technical indicator snapshot for a fund
func (h *Handler) HandleIndicators(w http.ResponseWriter, r *http.Request) {
	indicators, err := h.service.GetIndicators(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, indicators)
}

// HandleSparklines returns aggregated sparklines for every holding (?period=1Y|5Y)
func (h *Handler) HandleSparklines(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "1Y"
	}

	sparklines, err := h.service.GetSparklinesAggregated(r.Context(), period)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sparklines)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	status := utils.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Request failed")
	}
	h.writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  domain.KindOf(err).String(),
	})
}

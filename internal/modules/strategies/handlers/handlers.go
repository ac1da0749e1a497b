// Package handlers provides HTTP handlers for strategy runs and signals.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aristath/fundwatch/internal/domain"
	"github.com/aristath/fundwatch/internal/modules/strategies"
	"github.com/aristath/fundwatch/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles strategy HTTP requests
type Handler struct {
	service *strategies.Service
	log     zerolog.Logger
}

// NewHandler creates a new strategies handler
func NewHandler(service *strategies.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "strategies").Logger(),
	}
}

// HandleRunAll runs every strategy for every holding
func (h *Handler) HandleRunAll(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RunForAllHoldings(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleRunFund runs every strategy for one holding
func (h *Handler) HandleRunFund(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RunForFund(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleLatest returns the newest signal per strategy for a fund
func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	signals, err := h.service.Latest(r.Context(), code)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"code":    code,
		"signals": signals,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	status := utils.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Strategy request failed")
	}
	h.writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  domain.KindOf(err).String(),
	})
}

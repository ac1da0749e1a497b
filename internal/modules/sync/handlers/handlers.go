// Package handlers provides HTTP handlers that trigger synchronisation on demand.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aristath/fundwatch/internal/domain"
	fundsync "github.com/aristath/fundwatch/internal/modules/sync"
	"github.com/aristath/fundwatch/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles sync HTTP requests
type Handler struct {
	service *fundsync.Service
	log     zerolog.Logger
}

// NewHandler creates a new sync handler
func NewHandler(service *fundsync.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "sync").Logger(),
	}
}

// HandleSyncEstimates refreshes the estimate overlay of every holding
func (h *Handler) HandleSyncEstimates(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.SyncAllHoldingsEstimates(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleSyncEstimate refreshes the estimate overlay of one holding
func (h *Handler) HandleSyncEstimate(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := h.service.SyncSingleFundEstimate(r.Context(), code); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"code": code, "status": "ok"})
}

// HandleSyncHistory syncs NAV history for every holding
func (h *Handler) HandleSyncHistory(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.SyncAllHoldingsHistory(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleSyncFundHistory syncs NAV history for one holding
func (h *Handler) HandleSyncFundHistory(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	accepted, err := h.service.SyncSingleFundHistory(r.Context(), code)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"code": code, "accepted": accepted})
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
		h.log.Error().Err(err).Msg("Sync request failed")
	}
	h.writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  domain.KindOf(err).String(),
	})
}

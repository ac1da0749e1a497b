// Package handlers provides HTTP handlers for holdings management.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/fundwatch/internal/domain"
	"github.com/aristath/fundwatch/internal/modules/holdings"
	"github.com/aristath/fundwatch/internal/money"
	"github.com/aristath/fundwatch/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// maxImportBytes caps the size of an import upload
const maxImportBytes = 1 << 20

// Handler handles holdings HTTP requests
type Handler struct {
	service *holdings.Service
	log     zerolog.Logger
}

// NewHandler creates a new holdings handler
func NewHandler(service *holdings.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "holdings").Logger(),
	}
}

// HoldingResponse is the API view of a holding; decimals become floats here.
type HoldingResponse struct {
	Code                    string   `json:"code"`
	Name                    string   `json:"name"`
	Shares                  float64  `json:"shares"`
	YesterdayNav            float64  `json:"yesterday_nav"`
	HoldingAmount           float64  `json:"holding_amount"`
	HoldingProfitAmount     *float64 `json:"holding_profit_amount"`
	HoldingProfitRate       *float64 `json:"holding_profit_rate"`
	TodayEstimateNav        *float64 `json:"today_estimate_nav"`
	TodayEstimateAmount     *float64 `json:"today_estimate_amount"`
	PercentageChange        *float64 `json:"percentage_change"`
	TodayEstimateUpdateTime *string  `json:"today_estimate_update_time"`
	UpdatedAt               string   `json:"updated_at"`
}

type createRequest struct {
	Code              string           `json:"code"`
	Name              string           `json:"name"`
	HoldingAmount     *decimal.Decimal `json:"holding_amount"`
	HoldingProfitRate *decimal.Decimal `json:"holding_profit_rate"`
}

type updateRequest struct {
	HoldingAmount     *decimal.Decimal `json:"holding_amount"`
	HoldingProfitRate *decimal.Decimal `json:"holding_profit_rate"`
}

// HandleList returns all holdings
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	response := make([]HoldingResponse, 0, len(list))
	for i := range list {
		response = append(response, ToResponse(&list[i]))
	}
	h.writeJSON(w, http.StatusOK, response)
}

// HandleGet returns one holding
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	holding, err := h.service.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ToResponse(holding))
}

// HandleCreate creates a holding from an invested amount
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.HoldingAmount == nil {
		h.writeError(w, http.StatusBadRequest, "holding_amount is required")
		return
	}

	holding, err := h.service.Create(r.Context(), holdings.CreateInput{
		Code:       req.Code,
		Name:       req.Name,
		Amount:     *req.HoldingAmount,
		ProfitRate: req.HoldingProfitRate,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, ToResponse(holding))
}

// HandleUpdate changes the invested amount and declared profit rate
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.HoldingAmount == nil {
		h.writeError(w, http.StatusBadRequest, "holding_amount is required")
		return
	}

	holding, err := h.service.Update(r.Context(), chi.URLParam(r, "code"), holdings.UpdateInput{
		Amount:     *req.HoldingAmount,
		ProfitRate: req.HoldingProfitRate,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ToResponse(holding))
}

// HandleDelete removes a holding and its history
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExport returns the holdings in import format
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Export(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	filename := "holdings-" + time.Now().Format("20060102") + ".json"
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	h.writeJSON(w, http.StatusOK, rows)
}

// HandleImport imports holdings from an exported file
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	overwrite := false
	if raw := r.URL.Query().Get("overwrite"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "overwrite must be true or false")
			return
		}
		overwrite = v
	}

	var rows []holdings.ImportRow
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBytes)).Decode(&rows); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid import file")
		return
	}

	result, err := h.service.Import(r.Context(), rows, overwrite)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// ToResponse converts a holding to its API view
func ToResponse(holding *holdings.Holding) HoldingResponse {
	resp := HoldingResponse{
		Code:                holding.Code,
		Name:                holding.Name,
		Shares:              money.Float(holding.Shares),
		YesterdayNav:        money.Float(holding.YesterdayNav),
		HoldingAmount:       money.Float(holding.HoldingAmount),
		HoldingProfitAmount: floatPtr(holding.HoldingProfitAmount),
		HoldingProfitRate:   floatPtr(holding.HoldingProfitRate),
		TodayEstimateNav:    floatPtr(holding.TodayEstimateNav),
		TodayEstimateAmount: floatPtr(holding.TodayEstimateAmount),
		PercentageChange:    floatPtr(holding.PercentageChange),
		UpdatedAt:           holding.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if holding.TodayEstimateUpdateTime != nil {
		s := holding.TodayEstimateUpdateTime.UTC().Format(time.RFC3339)
		resp.TodayEstimateUpdateTime = &s
	}
	return resp
}

func floatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := money.Float(*d)
	return &f
}

// Helper methods

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

package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers sync routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sync", func(r chi.Router) {
		r.Post("/estimates", h.HandleSyncEstimates)
		r.Post("/estimates/{code}", h.HandleSyncEstimate)
		r.Post("/history", h.HandleSyncHistory)
		r.Post("/history/{code}", h.HandleSyncFundHistory)
	})
}

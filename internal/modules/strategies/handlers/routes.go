package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers strategy routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/strategies", func(r chi.Router) {
		r.Post("/run", h.HandleRunAll)
		r.Post("/run/{code}", h.HandleRunFund)
		r.Get("/{code}", h.HandleLatest)
	})
}

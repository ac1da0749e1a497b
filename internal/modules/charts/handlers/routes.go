package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers history and chart routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Get("/sparklines", h.HandleSparklines)
		r.Get("/{code}", h.HandleHistory)
		r.Get("/{code}/indicators", h.HandleIndicators)
	})
}

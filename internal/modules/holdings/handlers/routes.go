package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all holdings routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/holdings", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/export", h.HandleExport)
		r.Post("/import", h.HandleImport) // ?overwrite=true clears holdings and history first

		r.Get("/{code}", h.HandleGet)
		r.Put("/{code}", h.HandleUpdate)
		r.Delete("/{code}", h.HandleDelete)
	})
}

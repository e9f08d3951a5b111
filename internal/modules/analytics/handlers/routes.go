package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all analysis routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analysis", func(r chi.Router) {
		r.Get("/correlation", h.HandleCorrelation)

		r.Route("/portfolio/{id}", func(r chi.Router) {
			r.Get("/risk", h.HandleRisk)
			r.Get("/attribution", h.HandleAttribution)
			r.Get("/benchmark", h.HandleBenchmark)
			r.Get("/diversification", h.HandleDiversification)
		})
	})
}

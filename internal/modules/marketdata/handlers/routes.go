package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers price and quote routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/prices/{ticker}", func(r chi.Router) {
		r.Get("/", h.HandleGetPrices)
		r.Get("/returns", h.HandleGetReturns)
	})
	r.Get("/quotes/{ticker}", h.HandleGetQuote)
}

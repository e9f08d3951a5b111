package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolios", func(r chi.Router) {
		r.Get("/", h.HandleListPortfolios)
		r.Post("/", h.HandleCreatePortfolio)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGetPortfolio)
			r.Delete("/", h.HandleDeletePortfolio)

			r.Get("/positions", h.HandleGetPositions)
			r.Post("/positions", h.HandleAddPosition)
			r.Put("/positions/{positionID}", h.HandleUpdatePosition)
			r.Delete("/positions/{positionID}", h.HandleDeletePosition)

			r.Get("/transactions", h.HandleGetTransactions)
			r.Post("/transactions", h.HandleRecordTransaction)

			r.Get("/snapshots", h.HandleGetSnapshots)
		})
	})
}

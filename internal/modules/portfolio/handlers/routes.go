package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/portfolios", h.HandleCreatePortfolio)
	r.Get("/portfolios", h.HandleListPortfolios)

	r.Get("/portfolios/{id}", h.HandleGetPortfolio)
	r.Delete("/portfolios/{id}", h.HandleDeletePortfolio)

	r.Post("/portfolios/{id}/holdings", h.HandleAddHolding)
	r.Delete("/portfolios/{id}/holdings/{holdingID}", h.HandleRemoveHolding)

	r.Put("/portfolios/{id}/target-allocation", h.HandleSetTargetAllocation)
	r.Post("/portfolios/{id}/refresh", h.HandleRefreshPortfolio)
	r.Get("/portfolios/{id}/history", h.HandleGetHistory)
}

package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all allocation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/analytics/allocation", h.HandleAnalyzeAllocation)
	r.Get("/portfolios/{id}/allocation", h.HandleGetPortfolioAllocation)
}

package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all performance routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/analytics/performance", h.HandleAnalyzePerformance)

	r.Get("/portfolios/{id}/performance", h.HandleGetPortfolioPerformance)
	r.Get("/portfolios/{id}/report", h.HandleGetPortfolioReport)
}

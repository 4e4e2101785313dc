package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all income routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/analytics/income", h.HandleAnalyzeIncome)
	r.Get("/portfolios/{id}/income", h.HandleGetPortfolioIncome)
}

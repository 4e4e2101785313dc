package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all risk routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/analytics/risk", h.HandleAnalyzeRisk)

	// Stored portfolio endpoints
	r.Get("/portfolios/{id}/risk", h.HandleGetPortfolioRisk)
	r.Get("/portfolios/{id}/stress", h.HandleGetPortfolioStress)
}

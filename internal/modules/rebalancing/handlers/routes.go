package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all rebalancing routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/analytics/rebalance", h.HandleAnalyzeRebalance)
	r.Post("/portfolios/{id}/rebalance", h.HandleRebalancePortfolio)

	r.Get("/rebalancing/schedule", h.HandleGetSchedule)
	r.Get("/rebalancing/strategies/{name}", h.HandleGetStrategy)
}

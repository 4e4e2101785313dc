// Package handlers provides HTTP handlers for portfolio management.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/modules/portfolio"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service *portfolio.PortfolioService
	now     func() time.Time
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.PortfolioService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		now:     time.Now,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// CreatePortfolioRequest is the body of POST /api/portfolios
type CreatePortfolioRequest struct {
	Name             string                       `json:"name"`
	TargetAllocation map[domain.AssetType]float64 `json:"targetAllocation,omitempty"`
}

// TargetAllocationRequest is the body of PUT /api/portfolios/{id}/target-allocation
type TargetAllocationRequest struct {
	TargetAllocation map[domain.AssetType]float64 `json:"targetAllocation"`
}

// HandleCreatePortfolio handles POST /api/portfolios
func (h *Handler) HandleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req CreatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.service.CreatePortfolio(r.Context(), req.Name, req.TargetAllocation)
	if err != nil {
		h.writeError(w, err, "Failed to create portfolio")
		return
	}
	h.writeDataStatus(w, http.StatusCreated, p)
}

// HandleListPortfolios handles GET /api/portfolios
func (h *Handler) HandleListPortfolios(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.service.ListPortfolios(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to list portfolios")
		return
	}
	h.writeData(w, portfolios)
}

// HandleGetPortfolio handles GET /api/portfolios/{id}
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPortfolio(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "Failed to get portfolio")
		return
	}

	snapshot := p.Snapshot()
	h.writeData(w, map[string]interface{}{
		"portfolio":  p,
		"totalValue": snapshot.TotalValue(),
		"totalCost":  snapshot.TotalCost(),
		"allocation": snapshot.Allocation(),
	})
}

// HandleDeletePortfolio handles DELETE /api/portfolios/{id}
func (h *Handler) HandleDeletePortfolio(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePortfolio(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err, "Failed to delete portfolio")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddHolding handles POST /api/portfolios/{id}/holdings
func (h *Handler) HandleAddHolding(w http.ResponseWriter, r *http.Request) {
	var holding domain.Holding
	if err := json.NewDecoder(r.Body).Decode(&holding); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	added, err := h.service.AddHolding(r.Context(), chi.URLParam(r, "id"), holding)
	if err != nil {
		h.writeError(w, err, "Failed to add holding")
		return
	}
	h.writeDataStatus(w, http.StatusCreated, added)
}

// HandleRemoveHolding handles DELETE /api/portfolios/{id}/holdings/{holdingID}
func (h *Handler) HandleRemoveHolding(w http.ResponseWriter, r *http.Request) {
	err := h.service.RemoveHolding(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "holdingID"))
	if err != nil {
		h.writeError(w, err, "Failed to remove holding")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetTargetAllocation handles PUT /api/portfolios/{id}/target-allocation
func (h *Handler) HandleSetTargetAllocation(w http.ResponseWriter, r *http.Request) {
	var req TargetAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.SetTargetAllocation(r.Context(), id, req.TargetAllocation); err != nil {
		h.writeError(w, err, "Failed to set target allocation")
		return
	}
	h.writeData(w, map[string]interface{}{
		"portfolioId":      id,
		"targetAllocation": req.TargetAllocation,
	})
}

// HandleRefreshPortfolio handles POST /api/portfolios/{id}/refresh
func (h *Handler) HandleRefreshPortfolio(w http.ResponseWriter, r *http.Request) {
	p, result, err := h.service.RefreshPortfolio(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "Failed to refresh prices")
		return
	}
	h.writeData(w, map[string]interface{}{
		"portfolio": p,
		"refresh":   result,
	})
}

// HandleGetHistory handles GET /api/portfolios/{id}/history?limit=
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	points, err := h.service.GetValueHistory(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		h.writeError(w, err, "Failed to get value history")
		return
	}
	h.writeData(w, points)
}

// writeError maps service errors onto status codes
func (h *Handler) writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, portfolio.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	default:
		h.log.Error().Err(err).Msg(msg)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	h.writeDataStatus(w, http.StatusOK, data)
}

func (h *Handler) writeDataStatus(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": h.now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

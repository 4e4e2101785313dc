// Package handlers provides HTTP handlers for allocation breakdowns.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/modules/allocation"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles allocation HTTP requests
type Handler struct {
	checker      *allocation.ConcentrationChecker
	source       domain.SnapshotSource
	sectorGroups map[string][]string
	now          func() time.Time
	log          zerolog.Logger
}

// NewHandler creates a new allocation handler
func NewHandler(
	checker *allocation.ConcentrationChecker,
	source domain.SnapshotSource,
	sectorGroups map[string][]string,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		checker:      checker,
		source:       source,
		sectorGroups: sectorGroups,
		now:          time.Now,
		log:          log.With().Str("handler", "allocation").Logger(),
	}
}

// AnalyzeRequest is the body of POST /api/analytics/allocation
type AnalyzeRequest struct {
	Snapshot domain.Snapshot `json:"snapshot"`
}

// HandleAnalyzeAllocation handles POST /api/analytics/allocation
func (h *Handler) HandleAnalyzeAllocation(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Snapshot.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeData(w, h.breakdown(req.Snapshot))
}

// HandleGetPortfolioAllocation handles GET /api/portfolios/{id}/allocation
func (h *Handler) HandleGetPortfolioAllocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	snapshot, err := h.source.Snapshot(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Portfolio not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("portfolio_id", id).Msg("Failed to load portfolio")
		http.Error(w, "Failed to load portfolio", http.StatusInternalServerError)
		return
	}

	h.writeData(w, h.breakdown(snapshot))
}

func (h *Handler) breakdown(snapshot domain.Snapshot) allocation.Breakdown {
	return allocation.Breakdown{
		TotalValue: snapshot.TotalValue(),
		ByType:     allocation.CalculateTypeAllocation(snapshot),
		BySector:   allocation.CalculateSectorAllocation(snapshot, h.sectorGroups),
		Alerts:     h.checker.CheckConcentration(snapshot),
	}
}

func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
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

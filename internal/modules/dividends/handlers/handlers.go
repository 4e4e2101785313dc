// Package handlers provides HTTP handlers for income projections.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/modules/dividends"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles income HTTP requests
type Handler struct {
	projector    *dividends.Projector
	source       domain.SnapshotSource
	defaultYield float64
	now          func() time.Time
	log          zerolog.Logger
}

// NewHandler creates a new income handler
func NewHandler(
	projector *dividends.Projector,
	source domain.SnapshotSource,
	defaultYield float64,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		projector:    projector,
		source:       source,
		defaultYield: defaultYield,
		now:          time.Now,
		log:          log.With().Str("handler", "dividends").Logger(),
	}
}

// AnalyzeRequest is the body of POST /api/analytics/income.
// DividendYield is a fraction (0.02 = 2%).
type AnalyzeRequest struct {
	Snapshot      domain.Snapshot `json:"snapshot"`
	DividendYield *float64        `json:"dividendYield,omitempty"`
}

// HandleAnalyzeIncome handles POST /api/analytics/income
func (h *Handler) HandleAnalyzeIncome(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Snapshot.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	yield := h.defaultYield
	if req.DividendYield != nil {
		if *req.DividendYield < 0 {
			http.Error(w, "dividendYield must not be negative", http.StatusBadRequest)
			return
		}
		yield = *req.DividendYield
	}

	h.writeData(w, h.projector.CalculateIncomeProjections(req.Snapshot, yield))
}

// HandleGetPortfolioIncome handles GET /api/portfolios/{id}/income?yield=
func (h *Handler) HandleGetPortfolioIncome(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	yield := h.defaultYield
	if raw := r.URL.Query().Get("yield"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid yield parameter", http.StatusBadRequest)
			return
		}
		yield = parsed
	}

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

	h.writeData(w, h.projector.CalculateIncomeProjections(snapshot, yield))
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

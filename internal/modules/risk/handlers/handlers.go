// Package handlers provides HTTP handlers for risk analysis operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/modules/risk"
	"github.com/folioworks/folio/pkg/formulas"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// historyLimit bounds the recorded values turned into a returns series
const historyLimit = 365

// Handler handles risk HTTP requests
type Handler struct {
	engine       *risk.Engine
	source       domain.SnapshotSource
	riskFreeRate float64
	now          func() time.Time
	log          zerolog.Logger
}

// NewHandler creates a new risk handler
func NewHandler(
	engine *risk.Engine,
	source domain.SnapshotSource,
	riskFreeRate float64,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		engine:       engine,
		source:       source,
		riskFreeRate: riskFreeRate,
		now:          time.Now,
		log:          log.With().Str("handler", "risk").Logger(),
	}
}

// AnalyzeRequest is the body of POST /api/analytics/risk
type AnalyzeRequest struct {
	Snapshot     domain.Snapshot `json:"snapshot"`
	Returns      []float64       `json:"returns,omitempty"`
	Benchmark    []float64       `json:"benchmark,omitempty"`
	RiskFreeRate *float64        `json:"riskFreeRate,omitempty"`
}

// HandleAnalyzeRisk handles POST /api/analytics/risk
func (h *Handler) HandleAnalyzeRisk(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Snapshot.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := risk.Options{
		Returns:      req.Returns,
		Benchmark:    req.Benchmark,
		RiskFreeRate: h.riskFreeRate,
	}
	if req.RiskFreeRate != nil {
		opts.RiskFreeRate = *req.RiskFreeRate
	}

	h.writeData(w, h.engine.AnalyzeRisk(req.Snapshot, opts))
}

// HandleGetPortfolioRisk handles GET /api/portfolios/{id}/risk
func (h *Handler) HandleGetPortfolioRisk(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	snapshot, err := h.source.Snapshot(r.Context(), id)
	if err != nil {
		h.writeSourceError(w, id, err)
		return
	}

	values, err := h.source.ValueHistory(r.Context(), id, historyLimit)
	if err != nil {
		h.log.Error().Err(err).Str("portfolio_id", id).Msg("Failed to get value history")
		http.Error(w, "Failed to get value history", http.StatusInternalServerError)
		return
	}

	opts := risk.Options{
		Returns:      formulas.CalculateReturns(values),
		RiskFreeRate: h.riskFreeRate,
	}

	h.writeData(w, h.engine.AnalyzeRisk(snapshot, opts))
}

// HandleGetPortfolioStress handles GET /api/portfolios/{id}/stress
func (h *Handler) HandleGetPortfolioStress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	snapshot, err := h.source.Snapshot(r.Context(), id)
	if err != nil {
		h.writeSourceError(w, id, err)
		return
	}

	h.writeData(w, h.engine.Assess(snapshot, h.now()))
}

func (h *Handler) writeSourceError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "Portfolio not found", http.StatusNotFound)
		return
	}
	h.log.Error().Err(err).Str("portfolio_id", id).Msg("Failed to load portfolio")
	http.Error(w, "Failed to load portfolio", http.StatusInternalServerError)
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

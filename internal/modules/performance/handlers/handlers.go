// Package handlers provides HTTP handlers for performance analysis.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/modules/performance"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const historyLimit = 365

// Handler handles performance HTTP requests
type Handler struct {
	analyzer *performance.Analyzer
	source   domain.SnapshotSource
	log      zerolog.Logger
}

// NewHandler creates a new performance handler
func NewHandler(analyzer *performance.Analyzer, source domain.SnapshotSource, log zerolog.Logger) *Handler {
	return &Handler{
		analyzer: analyzer,
		source:   source,
		log:      log.With().Str("handler", "performance").Logger(),
	}
}

// AnalyzeRequest is the body of POST /api/analytics/performance
type AnalyzeRequest struct {
	Snapshot         domain.Snapshot `json:"snapshot"`
	HistoricalValues []float64       `json:"historicalValues,omitempty"`
	BenchmarkReturns []float64       `json:"benchmarkReturns,omitempty"`
}

// HandleAnalyzePerformance handles POST /api/analytics/performance
func (h *Handler) HandleAnalyzePerformance(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Snapshot.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeData(w, h.analyzer.GenerateReport(req.Snapshot, req.HistoricalValues, req.BenchmarkReturns))
}

// HandleGetPortfolioPerformance handles GET /api/portfolios/{id}/performance
func (h *Handler) HandleGetPortfolioPerformance(w http.ResponseWriter, r *http.Request) {
	snapshot, history, ok := h.load(w, r)
	if !ok {
		return
	}
	h.writeData(w, h.analyzer.AnalyzePerformance(snapshot, history))
}

// HandleGetPortfolioReport handles GET /api/portfolios/{id}/report
func (h *Handler) HandleGetPortfolioReport(w http.ResponseWriter, r *http.Request) {
	snapshot, history, ok := h.load(w, r)
	if !ok {
		return
	}
	h.writeData(w, h.analyzer.GenerateReport(snapshot, history, nil))
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (domain.Snapshot, []float64, bool) {
	id := chi.URLParam(r, "id")

	snapshot, err := h.source.Snapshot(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Portfolio not found", http.StatusNotFound)
			return domain.Snapshot{}, nil, false
		}
		h.log.Error().Err(err).Str("portfolio_id", id).Msg("Failed to load portfolio")
		http.Error(w, "Failed to load portfolio", http.StatusInternalServerError)
		return domain.Snapshot{}, nil, false
	}

	history, err := h.source.ValueHistory(r.Context(), id, historyLimit)
	if err != nil {
		h.log.Error().Err(err).Str("portfolio_id", id).Msg("Failed to get value history")
		http.Error(w, "Failed to get value history", http.StatusInternalServerError)
		return domain.Snapshot{}, nil, false
	}

	return snapshot, history, true
}

func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
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

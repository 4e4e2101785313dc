// Package handlers provides HTTP handlers for rebalancing operations.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/modules/rebalancing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles rebalancing HTTP requests
type Handler struct {
	rebalancer      *rebalancing.Rebalancer
	source          domain.SnapshotSource
	defaultStrategy string
	frequency       string
	now             func() time.Time
	log             zerolog.Logger
}

// NewHandler creates a new rebalancing handler. defaultStrategy is used when
// neither the request nor the stored portfolio carries a target allocation.
func NewHandler(
	rebalancer *rebalancing.Rebalancer,
	source domain.SnapshotSource,
	defaultStrategy string,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		rebalancer:      rebalancer,
		source:          source,
		defaultStrategy: defaultStrategy,
		now:             time.Now,
		log:             log.With().Str("handler", "rebalancing").Logger(),
	}
}

// TargetRequest selects the target allocation and the plan flavour
type TargetRequest struct {
	Strategy         string                       `json:"strategy,omitempty"`
	TargetAllocation map[domain.AssetType]float64 `json:"targetAllocation,omitempty"`
	TaxOptimized     bool                         `json:"taxOptimized,omitempty"`
}

// AnalyzeRequest is the body of POST /api/analytics/rebalance
type AnalyzeRequest struct {
	Snapshot domain.Snapshot `json:"snapshot"`
	TargetRequest
}

// HandleAnalyzeRebalance handles POST /api/analytics/rebalance
func (h *Handler) HandleAnalyzeRebalance(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Snapshot.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	target, err := h.resolveTarget(req.TargetRequest, req.Snapshot.TargetAllocation)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeData(w, h.plan(req.Snapshot, target, req.TaxOptimized))
}

// HandleRebalancePortfolio handles POST /api/portfolios/{id}/rebalance.
// An empty body is accepted.
func (h *Handler) HandleRebalancePortfolio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req TargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
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

	target, err := h.resolveTarget(req, snapshot.TargetAllocation)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeData(w, h.plan(snapshot, target, req.TaxOptimized))
}

// SetDefaultFrequency sets the schedule returned when no frequency is requested
func (h *Handler) SetDefaultFrequency(frequency string) {
	h.frequency = frequency
}

// HandleGetSchedule handles GET /api/rebalancing/schedule?frequency=
func (h *Handler) HandleGetSchedule(w http.ResponseWriter, r *http.Request) {
	frequency := r.URL.Query().Get("frequency")
	if frequency == "" {
		frequency = h.frequency
	}
	h.writeData(w, rebalancing.GenerateSchedule(frequency, h.now()))
}

// HandleGetStrategy handles GET /api/rebalancing/strategies/{name}
func (h *Handler) HandleGetStrategy(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	strategy, err := rebalancing.ParseStrategy(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	h.writeData(w, map[string]interface{}{
		"strategy":         strategy,
		"targetAllocation": rebalancing.GenerateTargetAllocation(string(strategy)),
	})
}

func (h *Handler) plan(snapshot domain.Snapshot, target map[domain.AssetType]float64, taxOptimized bool) rebalancing.Plan {
	if taxOptimized {
		return h.rebalancer.CalculateTaxEfficientRebalancing(snapshot, target)
	}
	return h.rebalancer.CalculateRebalancing(snapshot, target)
}

// resolveTarget picks, in order: an explicit allocation, a named strategy,
// the stored allocation, the configured default strategy
func (h *Handler) resolveTarget(req TargetRequest, stored map[domain.AssetType]float64) (map[domain.AssetType]float64, error) {
	if len(req.TargetAllocation) > 0 {
		if err := validateTarget(req.TargetAllocation); err != nil {
			return nil, err
		}
		return req.TargetAllocation, nil
	}
	if req.Strategy != "" {
		if _, err := rebalancing.ParseStrategy(req.Strategy); err != nil {
			return nil, err
		}
		return rebalancing.GenerateTargetAllocation(req.Strategy), nil
	}
	if len(stored) > 0 {
		return stored, nil
	}
	return rebalancing.GenerateTargetAllocation(h.defaultStrategy), nil
}

func validateTarget(target map[domain.AssetType]float64) error {
	for t, pct := range target {
		if pct < 0 || pct > 100 {
			return fmt.Errorf("target for %s must be between 0 and 100, got %v", t, pct)
		}
	}
	return nil
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

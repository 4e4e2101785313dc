// Package rebalancing provides portfolio rebalancing functionality.
package rebalancing

import (
	"math"
	"sort"

	"github.com/folioworks/folio/internal/domain"
	"github.com/rs/zerolog"
)

// Action is the trade direction of a suggestion
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Priority of a suggestion
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
)

const (
	// DriftThreshold is the absolute drift (percentage points) above which a suggestion is emitted
	DriftThreshold = 5.0
	// HighPriorityDrift marks suggestions as HIGH priority above this drift
	HighPriorityDrift = 10.0
	// RebalanceTrigger is the total drift above which rebalancing is needed
	RebalanceTrigger = 10.0
	// TransactionFeeRate is the flat fee assumption applied to every suggested trade
	TransactionFeeRate = 0.001
)

// Suggestion is a single trade that moves an asset type toward its target
type Suggestion struct {
	AssetType         domain.AssetType `json:"assetType"`
	CurrentPercentage float64          `json:"currentPercentage"`
	TargetPercentage  float64          `json:"targetPercentage"`
	Drift             float64          `json:"drift"`
	Action            Action           `json:"action"`
	Amount            float64          `json:"amount"`
	Priority          Priority         `json:"priority"`
	EstimatedGainLoss *float64         `json:"estimatedGainLoss,omitempty"`
	TaxImpact         TaxImpact        `json:"taxImpact,omitempty"`
}

// Plan is the result of a rebalancing calculation
type Plan struct {
	NeedsRebalancing  bool                         `json:"needsRebalancing"`
	TotalDrift        float64                      `json:"totalDrift"`
	CurrentAllocation map[domain.AssetType]float64 `json:"currentAllocation"`
	TargetAllocation  map[domain.AssetType]float64 `json:"targetAllocation"`
	Suggestions       []Suggestion                 `json:"suggestions"`
	EstimatedCost     float64                      `json:"estimatedCost"`
	TaxOptimized      bool                         `json:"taxOptimized"`
}

// Rebalancer computes rebalancing plans. It holds no state between calls.
type Rebalancer struct {
	log zerolog.Logger
}

// NewRebalancer creates a new rebalancer
func NewRebalancer(log zerolog.Logger) *Rebalancer {
	return &Rebalancer{
		log: log.With().Str("service", "rebalancing").Logger(),
	}
}

// CalculateRebalancing compares the current allocation with the target and
// emits a suggestion for every type drifting more than DriftThreshold points.
// A portfolio with no value needs no rebalancing.
func (r *Rebalancer) CalculateRebalancing(snapshot domain.Snapshot, target map[domain.AssetType]float64) Plan {
	totalValue := snapshot.TotalValue()
	plan := Plan{
		CurrentAllocation: snapshot.Allocation(),
		TargetAllocation:  target,
		Suggestions:       []Suggestion{},
	}
	if totalValue == 0 {
		return plan
	}

	types := make([]domain.AssetType, 0, len(target))
	for t := range target {
		types = append(types, t)
	}
	domain.SortAssetTypes(types)

	for _, t := range types {
		targetPct := target[t]
		currentPct := plan.CurrentAllocation[t]
		drift := currentPct - targetPct
		plan.TotalDrift += math.Abs(drift)

		if math.Abs(drift) <= DriftThreshold {
			continue
		}

		difference := targetPct/100*totalValue - currentPct/100*totalValue
		action := ActionSell
		if difference > 0 {
			action = ActionBuy
		}
		priority := PriorityMedium
		if math.Abs(drift) > HighPriorityDrift {
			priority = PriorityHigh
		}

		plan.Suggestions = append(plan.Suggestions, Suggestion{
			AssetType:         t,
			CurrentPercentage: currentPct,
			TargetPercentage:  targetPct,
			Drift:             drift,
			Action:            action,
			Amount:            math.Abs(difference),
			Priority:          priority,
		})
	}

	sort.SliceStable(plan.Suggestions, func(i, j int) bool {
		a, b := plan.Suggestions[i], plan.Suggestions[j]
		if (a.Priority == PriorityHigh) != (b.Priority == PriorityHigh) {
			return a.Priority == PriorityHigh
		}
		return math.Abs(a.Drift) > math.Abs(b.Drift)
	})

	plan.NeedsRebalancing = plan.TotalDrift > RebalanceTrigger
	plan.EstimatedCost = EstimateCost(plan.Suggestions)

	r.log.Debug().
		Float64("total_drift", plan.TotalDrift).
		Bool("needs_rebalancing", plan.NeedsRebalancing).
		Int("suggestions", len(plan.Suggestions)).
		Msg("Calculated rebalancing plan")

	return plan
}

// EstimateCost applies the flat transaction fee to every suggested amount
func EstimateCost(suggestions []Suggestion) float64 {
	cost := 0.0
	for _, s := range suggestions {
		cost += s.Amount * TransactionFeeRate
	}
	return cost
}

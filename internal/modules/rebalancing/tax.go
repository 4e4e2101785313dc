package rebalancing

import (
	"math"
	"sort"

	"github.com/folioworks/folio/internal/domain"
)

// TaxImpact tags a SELL suggestion with its expected tax consequence
type TaxImpact string

const (
	TaxableGain TaxImpact = "TAXABLE_GAIN"
	TaxLoss     TaxImpact = "TAX_LOSS"
)

// CalculateTaxEfficientRebalancing extends the plain plan with tax-loss
// harvesting. Each SELL carries the unrealized gain of the holdings it would
// sell, computed from their own cost basis. Loss-making sells are promoted to
// HIGH priority and every TAX_LOSS suggestion is moved to the front.
func (r *Rebalancer) CalculateTaxEfficientRebalancing(snapshot domain.Snapshot, target map[domain.AssetType]float64) Plan {
	plan := r.CalculateRebalancing(snapshot, target)
	if !plan.NeedsRebalancing {
		return plan
	}

	suggestions := make([]Suggestion, len(plan.Suggestions))
	for i, s := range plan.Suggestions {
		if s.Action == ActionSell {
			gainPct := UnrealizedGainPct(snapshot, s.AssetType)
			s.EstimatedGainLoss = &gainPct
			s.TaxImpact = TaxLoss
			if gainPct > 0 {
				s.TaxImpact = TaxableGain
			}
			if gainPct < 0 {
				s.Priority = PriorityHigh
			}
		}
		suggestions[i] = s
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if (a.TaxImpact == TaxLoss) != (b.TaxImpact == TaxLoss) {
			return a.TaxImpact == TaxLoss
		}
		return math.Abs(a.Drift) > math.Abs(b.Drift)
	})

	plan.Suggestions = suggestions
	plan.TaxOptimized = true

	r.log.Debug().Int("suggestions", len(suggestions)).Msg("Applied tax-loss ordering")
	return plan
}

// UnrealizedGainPct is Σgain / Σcost × 100 over the holdings of an asset type
func UnrealizedGainPct(snapshot domain.Snapshot, assetType domain.AssetType) float64 {
	var cost, gain float64
	for _, h := range snapshot.HoldingsOfType(assetType) {
		v := h.Valuation()
		cost += v.Cost
		gain += v.Gain
	}
	return domain.Percent(gain, cost)
}

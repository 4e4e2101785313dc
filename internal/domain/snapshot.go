package domain

import "fmt"

// Snapshot is the materialized view of a portfolio that analytics run over.
// Totals are recomputed on every call.
type Snapshot struct {
	PortfolioID      string                `json:"portfolioId,omitempty"`
	Holdings         []Holding             `json:"holdings"`
	TargetAllocation map[AssetType]float64 `json:"targetAllocation,omitempty"`
}

// Validate checks every holding
func (s Snapshot) Validate() error {
	for i, h := range s.Holdings {
		if err := h.Validate(); err != nil {
			return fmt.Errorf("holding %d: %w", i, err)
		}
	}
	return nil
}

// TotalValue = Σ marketValue
func (s Snapshot) TotalValue() float64 {
	total := 0.0
	for _, h := range s.Holdings {
		total += h.MarketValue().InexactFloat64()
	}
	return total
}

// TotalCost = Σ costBasis
func (s Snapshot) TotalCost() float64 {
	total := 0.0
	for _, h := range s.Holdings {
		total += h.CostBasis().InexactFloat64()
	}
	return total
}

// ValueByType sums market value per asset type
func (s Snapshot) ValueByType() map[AssetType]float64 {
	values := make(map[AssetType]float64)
	for _, h := range s.Holdings {
		values[h.AssetType] += h.MarketValue().InexactFloat64()
	}
	return values
}

// Allocation returns the percentage of total value held in each asset type.
// The result is empty when the total value is 0.
func (s Snapshot) Allocation() map[AssetType]float64 {
	total := s.TotalValue()
	allocation := make(map[AssetType]float64)
	if total == 0 {
		return allocation
	}
	for t, v := range s.ValueByType() {
		allocation[t] = Percent(v, total)
	}
	return allocation
}

// AssetTypes returns the distinct asset types held, in canonical order
func (s Snapshot) AssetTypes() []AssetType {
	seen := make(map[AssetType]bool)
	var types []AssetType
	for _, h := range s.Holdings {
		if !seen[h.AssetType] {
			seen[h.AssetType] = true
			types = append(types, h.AssetType)
		}
	}
	SortAssetTypes(types)
	return types
}

// HoldingsOfType filters holdings by asset type, preserving order
func (s Snapshot) HoldingsOfType(t AssetType) []Holding {
	var out []Holding
	for _, h := range s.Holdings {
		if h.AssetType == t {
			out = append(out, h)
		}
	}
	return out
}

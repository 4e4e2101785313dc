package allocation

import (
	"math"
	"sort"

	"github.com/folioworks/folio/internal/domain"
)

// UnassignedGroup collects values whose item belongs to no group
const UnassignedGroup = "OTHER"

// GroupAllocation is the share of portfolio value held by one group.
// Percentages are 0..100; TargetPct is 0 when no target is set.
type GroupAllocation struct {
	Name         string  `json:"name"`
	TargetPct    float64 `json:"targetPct"`
	CurrentPct   float64 `json:"currentPct"`
	CurrentValue float64 `json:"currentValue"`
	Deviation    float64 `json:"deviation"`
}

// Breakdown is the allocation view of a portfolio
type Breakdown struct {
	TotalValue float64                     `json:"totalValue"`
	ByType     []GroupAllocation           `json:"byType"`
	BySector   []GroupAllocation           `json:"bySector"`
	Alerts     []domain.ConcentrationAlert `json:"alerts"`
}

// CalculateTypeAllocation lists every held or targeted asset type in
// canonical order with its deviation from the snapshot's target allocation
func CalculateTypeAllocation(snapshot domain.Snapshot) []GroupAllocation {
	values := make(map[string]float64)
	for t, v := range snapshot.ValueByType() {
		values[string(t)] = v
	}
	targets := make(map[string]float64)
	for t, pct := range snapshot.TargetAllocation {
		targets[string(t)] = pct
	}

	allocations := buildGroupAllocations(values, targets, snapshot.TotalValue())

	sort.SliceStable(allocations, func(i, j int) bool {
		return domain.AssetTypeLess(domain.AssetType(allocations[i].Name), domain.AssetType(allocations[j].Name))
	})
	return allocations
}

// CalculateSectorAllocation aggregates stock holdings by sector, then folds
// sectors into user-defined groups. A sector listed in several groups has its
// value split equally among them. With no groups every sector is its own
// group. Stocks without a sector count as OTHER. Percentages are relative to
// the whole portfolio.
func CalculateSectorAllocation(snapshot domain.Snapshot, sectorGroups map[string][]string) []GroupAllocation {
	sectorValues := make(map[string]float64)
	for _, h := range snapshot.HoldingsOfType(domain.AssetTypeStock) {
		sector := UnassignedGroup
		if h.Details != nil && h.Details.Stock != nil && h.Details.Stock.Sector != "" {
			sector = h.Details.Stock.Sector
		}
		sectorValues[sector] += h.MarketValue().InexactFloat64()
	}

	groupValues := sectorValues
	if len(sectorGroups) > 0 {
		groupValues = aggregateByGroupMulti(sectorValues, buildMultiGroupMapping(sectorGroups))
	}

	allocations := buildGroupAllocations(groupValues, nil, snapshot.TotalValue())
	sort.Slice(allocations, func(i, j int) bool {
		return allocations[i].Name < allocations[j].Name
	})
	return allocations
}

// buildMultiGroupMapping inverts group → items into item → groups
// e.g., {"Tech": ["Technology"], "Growth": ["Technology", "Healthcare"]}
//
//	-> {"Technology": ["Tech", "Growth"], "Healthcare": ["Growth"]}
func buildMultiGroupMapping(groups map[string][]string) map[string][]string {
	result := make(map[string][]string)
	for groupName, items := range groups {
		for _, item := range items {
			result[item] = append(result[item], groupName)
		}
	}
	return result
}

// aggregateByGroupMulti sums item values by group. An item in several groups
// is split equally among them.
func aggregateByGroupMulti(values map[string]float64, itemToGroups map[string][]string) map[string]float64 {
	groupValues := make(map[string]float64)

	for item, value := range values {
		groups := itemToGroups[item]
		if len(groups) == 0 {
			groupValues[UnassignedGroup] += value
			continue
		}

		splitValue := value / float64(len(groups))
		for _, group := range groups {
			groupValues[group] += splitValue
		}
	}

	return groupValues
}

// buildGroupAllocations creates one entry per group present in either values or targets
func buildGroupAllocations(groupValues, groupTargets map[string]float64, totalValue float64) []GroupAllocation {
	groupNames := make(map[string]bool)
	for name := range groupValues {
		groupNames[name] = true
	}
	for name := range groupTargets {
		groupNames[name] = true
	}

	allocations := make([]GroupAllocation, 0, len(groupNames))
	for groupName := range groupNames {
		currentValue := groupValues[groupName]
		targetPct := groupTargets[groupName]
		currentPct := domain.Percent(currentValue, totalValue)

		allocations = append(allocations, GroupAllocation{
			Name:         groupName,
			TargetPct:    targetPct,
			CurrentPct:   round(currentPct, 2),
			CurrentValue: round(currentValue, 2),
			Deviation:    round(currentPct-targetPct, 2),
		})
	}

	return allocations
}

// round rounds a float64 to n decimal places
func round(val float64, decimals int) float64 {
	multiplier := math.Pow(10, float64(decimals))
	return math.Round(val*multiplier) / multiplier
}

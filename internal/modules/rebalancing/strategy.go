package rebalancing

import (
	"fmt"
	"strings"

	"github.com/folioworks/folio/internal/domain"
)

// Strategy names a preset target allocation
type Strategy string

const (
	StrategyConservative Strategy = "CONSERVATIVE"
	StrategyModerate     Strategy = "MODERATE"
	StrategyAggressive   Strategy = "AGGRESSIVE"
	StrategyBalanced     Strategy = "BALANCED"
)

var presets = map[Strategy]map[domain.AssetType]float64{
	StrategyConservative: {domain.AssetTypeStock: 30, domain.AssetTypeBond: 50, domain.AssetTypeGold: 15, domain.AssetTypeCash: 5},
	StrategyModerate:     {domain.AssetTypeStock: 60, domain.AssetTypeBond: 30, domain.AssetTypeGold: 8, domain.AssetTypeCash: 2},
	StrategyAggressive:   {domain.AssetTypeStock: 80, domain.AssetTypeBond: 15, domain.AssetTypeGold: 3, domain.AssetTypeCash: 2},
	StrategyBalanced:     {domain.AssetTypeStock: 50, domain.AssetTypeBond: 40, domain.AssetTypeGold: 8, domain.AssetTypeCash: 2},
}

// ParseStrategy validates a strategy name (case-insensitive)
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := presets[s]; !ok {
		return "", fmt.Errorf("unknown strategy %q", name)
	}
	return s, nil
}

// GenerateTargetAllocation returns a fresh copy of the preset for strategy.
// Unknown names fall back to MODERATE.
func GenerateTargetAllocation(strategy string) map[domain.AssetType]float64 {
	s, err := ParseStrategy(strategy)
	if err != nil {
		s = StrategyModerate
	}

	out := make(map[domain.AssetType]float64, len(presets[s]))
	for t, pct := range presets[s] {
		out[t] = pct
	}
	return out
}

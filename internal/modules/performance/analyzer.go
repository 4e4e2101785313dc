// Package performance provides portfolio return analysis and attribution.
package performance

import (
	"sort"
	"time"

	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/pkg/formulas"
	"github.com/rs/zerolog"
)

const performersListSize = 5

// Summary holds portfolio level return figures
type Summary struct {
	TotalCost           float64 `json:"totalCost"`
	CurrentValue        float64 `json:"currentValue"`
	AbsoluteReturn      float64 `json:"absoluteReturn"`
	PercentReturn       float64 `json:"percentReturn"`
	TimeWeightedReturn  float64 `json:"timeWeightedReturn"`
	MoneyWeightedReturn float64 `json:"moneyWeightedReturn"`
	NumWinners          int     `json:"numWinners"`
	NumLosers           int     `json:"numLosers"`
	WinRate             float64 `json:"winRate"`
}

// AssetPerformance is the return of a single holding
type AssetPerformance struct {
	Symbol         string           `json:"symbol"`
	AssetType      domain.AssetType `json:"assetType"`
	Quantity       float64          `json:"quantity"`
	PurchasePrice  float64          `json:"purchasePrice"`
	CurrentPrice   float64          `json:"currentPrice"`
	Cost           float64          `json:"cost"`
	Value          float64          `json:"value"`
	Gain           float64          `json:"gain"`
	GainPercentage float64          `json:"gainPercentage"`
}

// TypePerformance aggregates holdings of one asset type
type TypePerformance struct {
	AssetType      domain.AssetType `json:"assetType"`
	Count          int              `json:"count"`
	Cost           float64          `json:"cost"`
	Value          float64          `json:"value"`
	Gain           float64          `json:"gain"`
	GainPercentage float64          `json:"gainPercentage"`
}

// Report is the result of AnalyzePerformance
type Report struct {
	Summary          Summary            `json:"summary"`
	AssetPerformance []AssetPerformance `json:"assetPerformance"`
	TypePerformance  []TypePerformance  `json:"typePerformance"`
	TopPerformers    []AssetPerformance `json:"topPerformers"`
	BottomPerformers []AssetPerformance `json:"bottomPerformers"`
}

// Attribution is one holding's contribution to the portfolio return
type Attribution struct {
	Symbol       string           `json:"symbol"`
	AssetType    domain.AssetType `json:"assetType"`
	Weight       float64          `json:"weight"`
	Return       float64          `json:"return"`
	Contribution float64          `json:"contribution"`
}

// Analyzer computes performance reports. It holds no state between calls.
type Analyzer struct {
	now func() time.Time
	log zerolog.Logger
}

// NewAnalyzer creates a new performance analyzer
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{
		now: time.Now,
		log: log.With().Str("service", "performance").Logger(),
	}
}

// WithClock returns a copy of the analyzer reading time from now
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	clone := *a
	clone.now = now
	return &clone
}

// AnalyzePerformance computes returns, per-holding and per-type breakdowns.
// historicalValues is the chronological series of portfolio totals used for TWR.
func (a *Analyzer) AnalyzePerformance(snapshot domain.Snapshot, historicalValues []float64) Report {
	assets := make([]AssetPerformance, 0, len(snapshot.Holdings))
	byType := make(map[domain.AssetType]*TypePerformance)

	var totalCost, currentValue float64
	for _, h := range snapshot.Holdings {
		v := h.Valuation()
		totalCost += v.Cost
		currentValue += v.Value

		assets = append(assets, AssetPerformance{
			Symbol:         h.Symbol,
			AssetType:      h.AssetType,
			Quantity:       h.Quantity.InexactFloat64(),
			PurchasePrice:  h.PurchasePrice.InexactFloat64(),
			CurrentPrice:   h.Price().InexactFloat64(),
			Cost:           v.Cost,
			Value:          v.Value,
			Gain:           v.Gain,
			GainPercentage: v.GainPct,
		})

		tp, ok := byType[h.AssetType]
		if !ok {
			tp = &TypePerformance{AssetType: h.AssetType}
			byType[h.AssetType] = tp
		}
		tp.Count++
		tp.Cost += v.Cost
		tp.Value += v.Value
	}

	sort.SliceStable(assets, func(i, j int) bool {
		return assets[i].GainPercentage > assets[j].GainPercentage
	})

	summary := Summary{
		TotalCost:           totalCost,
		CurrentValue:        currentValue,
		AbsoluteReturn:      currentValue - totalCost,
		PercentReturn:       domain.Percent(currentValue-totalCost, totalCost),
		TimeWeightedReturn:  TimeWeightedReturn(historicalValues),
		MoneyWeightedReturn: MoneyWeightedReturn(totalCost, currentValue),
	}
	for _, ap := range assets {
		switch {
		case ap.GainPercentage > 0:
			summary.NumWinners++
		case ap.GainPercentage < 0:
			summary.NumLosers++
		}
	}
	summary.WinRate = domain.Percent(float64(summary.NumWinners), float64(len(assets)))

	report := Report{
		Summary:          summary,
		AssetPerformance: assets,
		TypePerformance:  typeBreakdown(byType),
		TopPerformers:    topPerformers(assets),
		BottomPerformers: bottomPerformers(assets),
	}

	a.log.Debug().
		Int("holdings", len(assets)).
		Float64("percent_return", summary.PercentReturn).
		Msg("Analyzed portfolio performance")

	return report
}

// CalculateAttribution returns each holding's weight and contribution to the
// portfolio return, sorted by descending contribution. Empty when totalValue is 0.
func (a *Analyzer) CalculateAttribution(snapshot domain.Snapshot) []Attribution {
	total := snapshot.TotalValue()
	attribution := make([]Attribution, 0, len(snapshot.Holdings))
	if total == 0 {
		return attribution
	}

	for _, h := range snapshot.Holdings {
		v := h.Valuation()
		attribution = append(attribution, Attribution{
			Symbol:       h.Symbol,
			AssetType:    h.AssetType,
			Weight:       v.Value / total * 100,
			Return:       v.GainPct,
			Contribution: v.Gain / total * 100,
		})
	}

	sort.SliceStable(attribution, func(i, j int) bool {
		return attribution[i].Contribution > attribution[j].Contribution
	})

	return attribution
}

// TimeWeightedReturn compounds period returns of a value series, in percent.
// Fewer than two values returns 0.
func TimeWeightedReturn(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	returns := formulas.CalculateReturns(values)
	if len(returns) == 0 {
		return 0
	}
	return formulas.CompoundReturn(returns) * 100
}

// MoneyWeightedReturn is a simplified approximation, not a true IRR:
// (currentValue − totalCost) / totalCost × 100
func MoneyWeightedReturn(totalCost, currentValue float64) float64 {
	return domain.Percent(currentValue-totalCost, totalCost)
}

func typeBreakdown(byType map[domain.AssetType]*TypePerformance) []TypePerformance {
	types := make([]domain.AssetType, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	domain.SortAssetTypes(types)

	out := make([]TypePerformance, 0, len(types))
	for _, t := range types {
		tp := *byType[t]
		tp.Gain = tp.Value - tp.Cost
		tp.GainPercentage = domain.Percent(tp.Gain, tp.Cost)
		out = append(out, tp)
	}
	return out
}

func topPerformers(sorted []AssetPerformance) []AssetPerformance {
	n := len(sorted)
	if n > performersListSize {
		n = performersListSize
	}
	out := make([]AssetPerformance, n)
	copy(out, sorted[:n])
	return out
}

// bottomPerformers returns the last five, worst first
func bottomPerformers(sorted []AssetPerformance) []AssetPerformance {
	start := len(sorted) - performersListSize
	if start < 0 {
		start = 0
	}
	out := make([]AssetPerformance, 0, len(sorted)-start)
	for i := len(sorted) - 1; i >= start; i-- {
		out = append(out, sorted[i])
	}
	return out
}

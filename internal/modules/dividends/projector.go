// Package dividends projects the cash income a portfolio is expected to pay out.
package dividends

import (
	"github.com/folioworks/folio/internal/domain"
	"github.com/rs/zerolog"
)

const (
	// DefaultDividendYield is the stock yield assumed when the caller has none
	DefaultDividendYield = 0.02
	// BondYield is the fixed coupon assumption for every bond holding
	BondYield = 0.04
)

// Projection is the expected income of a single holding.
// YieldRate is a percentage.
type Projection struct {
	Symbol          string           `json:"symbol"`
	Type            domain.AssetType `json:"type"`
	Value           float64          `json:"value"`
	YieldRate       float64          `json:"yieldRate"`
	AnnualIncome    float64          `json:"annualIncome"`
	MonthlyIncome   float64          `json:"monthlyIncome"`
	QuarterlyIncome float64          `json:"quarterlyIncome"`
}

// Report aggregates the projections of every income-producing holding
type Report struct {
	Projections          []Projection `json:"projections"`
	TotalAnnualIncome    float64      `json:"totalAnnualIncome"`
	TotalMonthlyIncome   float64      `json:"totalMonthlyIncome"`
	TotalQuarterlyIncome float64      `json:"totalQuarterlyIncome"`
	AverageYield         float64      `json:"averageYield"`
}

// Projector computes income projections
type Projector struct {
	log zerolog.Logger
}

// NewProjector creates a new income projector
func NewProjector(log zerolog.Logger) *Projector {
	return &Projector{
		log: log.With().Str("service", "dividends").Logger(),
	}
}

// YieldFor returns the annual yield (as a fraction) applied to an asset type
// and whether the type produces income at all
func YieldFor(assetType domain.AssetType, stockYield float64) (float64, bool) {
	switch assetType {
	case domain.AssetTypeStock:
		return stockYield, true
	case domain.AssetTypeBond:
		return BondYield, true
	default:
		return 0, false
	}
}

// CalculateIncomeProjections projects income for STOCK and BOND holdings in
// snapshot order. GOLD and CASH pay nothing and are left out. The average
// yield is taken over the whole portfolio value, not just the income part.
func (p *Projector) CalculateIncomeProjections(snapshot domain.Snapshot, stockYield float64) Report {
	report := Report{Projections: []Projection{}}

	for _, h := range snapshot.Holdings {
		rate, ok := YieldFor(h.AssetType, stockYield)
		if !ok {
			continue
		}

		value := h.MarketValue().InexactFloat64()
		annual := value * rate
		report.Projections = append(report.Projections, Projection{
			Symbol:          h.Symbol,
			Type:            h.AssetType,
			Value:           value,
			YieldRate:       rate * 100,
			AnnualIncome:    annual,
			MonthlyIncome:   annual / 12,
			QuarterlyIncome: annual / 4,
		})
		report.TotalAnnualIncome += annual
	}

	report.TotalMonthlyIncome = report.TotalAnnualIncome / 12
	report.TotalQuarterlyIncome = report.TotalAnnualIncome / 4
	report.AverageYield = domain.Percent(report.TotalAnnualIncome, snapshot.TotalValue())

	p.log.Debug().
		Int("projections", len(report.Projections)).
		Float64("annual_income", report.TotalAnnualIncome).
		Msg("Calculated income projections")

	return report
}

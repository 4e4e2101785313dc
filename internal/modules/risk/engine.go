// Package risk provides portfolio risk analysis.
package risk

import (
	"fmt"
	"math"

	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/pkg/formulas"
	"github.com/rs/zerolog"
)

// Level classifies a risk score
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// Severity of a recommendation
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// RecommendationType groups recommendations by the rule that produced them
type RecommendationType string

const (
	RecommendationHighRisk        RecommendationType = "HIGH_RISK"
	RecommendationConcentration   RecommendationType = "CONCENTRATION"
	RecommendationDiversification RecommendationType = "DIVERSIFICATION"
	RecommendationAssetAllocation RecommendationType = "ASSET_ALLOCATION"
)

// Score thresholds
const (
	lowRiskBelow          = 30.0
	highRiskAbove         = 60.0
	highRiskAlertAbove    = 70.0
	concentrationAlert    = 40.0
	diversificationAlert  = 40.0
	overEquityAbove       = 80.0
	conservativeEquity    = 20.0
	conservativeBondAbove = 60.0

	// DrawdownStartValue seeds the compounded value path used for drawdown.
	// The seed is not a point of the path: it starts at the value after the
	// first return, so a first-period loss is not a drawdown.
	DrawdownStartValue = 100000.0
)

// Recommendation is a rule-driven suggestion attached to a report
type Recommendation struct {
	Type     RecommendationType `json:"type"`
	Severity Severity           `json:"severity"`
	Message  string             `json:"message"`
}

// Metrics holds the quantitative part of a risk report
type Metrics struct {
	TotalValue           float64                      `json:"totalValue"`
	Allocation           map[domain.AssetType]float64 `json:"allocation"`
	EquityPercentage     float64                      `json:"equityPercentage"`
	BondPercentage       float64                      `json:"bondPercentage"`
	GoldPercentage       float64                      `json:"goldPercentage"`
	CashPercentage       float64                      `json:"cashPercentage"`
	ConcentrationRisk    float64                      `json:"concentrationRisk"`
	ConcentratedType     domain.AssetType             `json:"concentratedType,omitempty"`
	DiversificationScore float64                      `json:"diversificationScore"`
	HerfindahlIndex      float64                      `json:"herfindahlIndex"`
	NumAssets            int                          `json:"numAssets"`
	NumAssetTypes        int                          `json:"numAssetTypes"`
	SharpeRatio          float64                      `json:"sharpeRatio"`
	SortinoRatio         float64                      `json:"sortinoRatio"`
	Volatility           float64                      `json:"volatility"`
	VaR95                float64                      `json:"var95"`
	CVaR95               float64                      `json:"cvar95"`
	MaxDrawdown          float64                      `json:"maxDrawdown"`
	Beta                 *float64                     `json:"beta,omitempty"`
	Alpha                *float64                     `json:"alpha,omitempty"`
	InformationRatio     *float64                     `json:"informationRatio,omitempty"`
}

// Report is the result of AnalyzeRisk
type Report struct {
	RiskScore       int              `json:"riskScore"`
	RiskLevel       Level            `json:"riskLevel"`
	Metrics         Metrics          `json:"metrics"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Options carries the series the return-based metrics are computed over.
// Returns are periodic fractional returns supplied by the caller (real
// history or an explicit proxy). Without them the return-based metrics are 0.
type Options struct {
	Returns      []float64
	Benchmark    []float64
	RiskFreeRate float64
}

// DefaultOptions returns options with the default risk-free rate and no series
func DefaultOptions() Options {
	return Options{RiskFreeRate: formulas.DefaultRiskFreeRate}
}

// Engine computes risk reports. It holds no state between calls.
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a new risk engine
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		log: log.With().Str("service", "risk").Logger(),
	}
}

// AnalyzeRisk scores a snapshot and derives recommendations
func (e *Engine) AnalyzeRisk(snapshot domain.Snapshot, opts Options) Report {
	totalValue := snapshot.TotalValue()
	allocation := snapshot.Allocation()

	concentration, concentratedType := maxAllocation(allocation)
	numAssets := len(snapshot.Holdings)
	numAssetTypes := len(snapshot.AssetTypes())
	diversification := DiversificationScore(numAssets, numAssetTypes)
	equityPct := allocation[domain.AssetTypeStock]
	bondPct := allocation[domain.AssetTypeBond]

	score := 0.0
	if totalValue > 0 {
		score = Score(equityPct, concentration, diversification)
	}

	metrics := Metrics{
		TotalValue:           totalValue,
		Allocation:           allocation,
		EquityPercentage:     equityPct,
		BondPercentage:       bondPct,
		GoldPercentage:       allocation[domain.AssetTypeGold],
		CashPercentage:       allocation[domain.AssetTypeCash],
		ConcentrationRisk:    concentration,
		ConcentratedType:     concentratedType,
		DiversificationScore: diversification,
		HerfindahlIndex:      HerfindahlIndex(allocation),
		NumAssets:            numAssets,
		NumAssetTypes:        numAssetTypes,
	}
	applyReturnMetrics(&metrics, opts)

	report := Report{
		RiskScore:       int(math.Round(score)),
		RiskLevel:       ClassifyScore(score),
		Metrics:         metrics,
		Recommendations: recommendations(score, concentration, concentratedType, diversification, equityPct, bondPct),
	}

	e.log.Debug().
		Float64("total_value", totalValue).
		Int("risk_score", report.RiskScore).
		Str("risk_level", string(report.RiskLevel)).
		Int("recommendations", len(report.Recommendations)).
		Msg("Analyzed portfolio risk")

	return report
}

// DiversificationScore = min(100, holdings×10 + distinct types×20)
func DiversificationScore(numHoldings, numAssetTypes int) float64 {
	return math.Min(100, float64(numHoldings*10+numAssetTypes*20))
}

// Score = min(100, equity×0.5 + concentration×0.3 + (100 − diversification)×0.2)
func Score(equityPct, concentration, diversification float64) float64 {
	return math.Min(100, equityPct*0.5+concentration*0.3+(100-diversification)*0.2)
}

// ClassifyScore maps a score to LOW (<30), MEDIUM (30..60) or HIGH (>60)
func ClassifyScore(score float64) Level {
	switch {
	case score < lowRiskBelow:
		return LevelLow
	case score > highRiskAbove:
		return LevelHigh
	default:
		return LevelMedium
	}
}

// HerfindahlIndex is Σ w² over allocation weights (as fractions).
// 1 means fully concentrated; 0 for an empty allocation.
func HerfindahlIndex(allocation map[domain.AssetType]float64) float64 {
	hhi := 0.0
	for _, pct := range allocation {
		w := pct / 100
		hhi += w * w
	}
	return hhi
}

// maxAllocation returns the largest allocation and its type, ties going to
// the type first in canonical order.
func maxAllocation(allocation map[domain.AssetType]float64) (float64, domain.AssetType) {
	types := make([]domain.AssetType, 0, len(allocation))
	for t := range allocation {
		types = append(types, t)
	}
	domain.SortAssetTypes(types)

	best := 0.0
	var bestType domain.AssetType
	for _, t := range types {
		if allocation[t] > best {
			best = allocation[t]
			bestType = t
		}
	}
	return best, bestType
}

func applyReturnMetrics(m *Metrics, opts Options) {
	if len(opts.Returns) == 0 {
		return
	}

	m.SharpeRatio = formulas.SharpeRatio(opts.Returns, opts.RiskFreeRate)
	m.SortinoRatio = formulas.SortinoRatio(opts.Returns, 0)
	m.Volatility = formulas.AnnualizedVolatility(opts.Returns)
	m.VaR95 = formulas.ValueAtRisk(opts.Returns, formulas.DefaultConfidence) * 100
	m.CVaR95 = formulas.ConditionalVaR(opts.Returns, formulas.DefaultConfidence) * 100
	m.MaxDrawdown = formulas.CalculateMaxDrawdown(
		formulas.ValuesFromReturns(DrawdownStartValue, opts.Returns)[1:],
	).MaxDrawdown

	if len(opts.Benchmark) == 0 {
		return
	}

	beta := formulas.Beta(opts.Returns, opts.Benchmark)
	alpha := formulas.Alpha(
		formulas.Mean(opts.Returns)*formulas.TradingDaysPerYear,
		formulas.Mean(opts.Benchmark)*formulas.TradingDaysPerYear,
		beta,
		opts.RiskFreeRate,
	)
	ir := formulas.InformationRatio(opts.Returns, opts.Benchmark)
	m.Beta = &beta
	m.Alpha = &alpha
	m.InformationRatio = &ir
}

// recommendations evaluates every rule in a fixed order; none short-circuit.
func recommendations(score, concentration float64, concentratedType domain.AssetType, diversification, equityPct, bondPct float64) []Recommendation {
	recs := []Recommendation{}

	if score > highRiskAlertAbove {
		recs = append(recs, Recommendation{
			Type:     RecommendationHighRisk,
			Severity: SeverityHigh,
			Message:  "Your portfolio has high risk. Consider reducing equity exposure and adding bonds or stable assets.",
		})
	}

	if concentration > concentrationAlert {
		recs = append(recs, Recommendation{
			Type:     RecommendationConcentration,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("High concentration risk detected in %s (%.1f%%). Diversify across more assets.", concentratedType, concentration),
		})
	}

	if diversification < diversificationAlert {
		recs = append(recs, Recommendation{
			Type:     RecommendationDiversification,
			Severity: SeverityMedium,
			Message:  "Low diversification. Consider adding more asset types and individual holdings.",
		})
	}

	if equityPct > overEquityAbove {
		recs = append(recs, Recommendation{
			Type:     RecommendationAssetAllocation,
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("Equity allocation is %.1f%%. Consider adding bonds for stability.", equityPct),
		})
	}

	if equityPct < conservativeEquity && bondPct > conservativeBondAbove {
		recs = append(recs, Recommendation{
			Type:     RecommendationAssetAllocation,
			Severity: SeverityLow,
			Message:  "Very conservative allocation. Consider adding some growth assets if appropriate for your goals.",
		})
	}

	return recs
}

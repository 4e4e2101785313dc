package risk

import (
	"math"
	"strings"
	"time"

	"github.com/folioworks/folio/internal/domain"
)

// Scenario names
const (
	ScenarioMarketCrash      = "MARKET_CRASH"
	ScenarioModerateDecline  = "MODERATE_DECLINE"
	ScenarioInterestRateHike = "INTEREST_RATE_HIKE"
	ScenarioCurrencyShock    = "CURRENCY_SHOCK"
)

const (
	rateHikeShock        = 0.02
	defaultBondDuration  = 5.0
	maturityHorizonYears = 30.0
	goldBaseRisk         = 0.3
	defaultHoldingRisk   = 0.5
	sectorBaseRisk       = 0.5
)

var creditRatingRisk = map[string]float64{
	"AAA": 0.1,
	"AA":  0.2,
	"A":   0.3,
	"BBB": 0.4,
	"BB":  0.6,
	"B":   0.7,
	"CCC": 0.8,
	"CC":  0.9,
	"C":   1.0,
}

// StressResult is the outcome of one scenario
type StressResult struct {
	Scenario         string  `json:"scenario"`
	CurrentValue     float64 `json:"currentValue"`
	StressedValue    float64 `json:"stressedValue"`
	ValueImpact      float64 `json:"valueImpact"`
	PercentageImpact float64 `json:"percentageImpact"`
}

// HoldingRisk is the 0..1 risk estimate of one holding
type HoldingRisk struct {
	Symbol    string           `json:"symbol"`
	AssetType domain.AssetType `json:"assetType"`
	Weight    float64          `json:"weight"`
	Risk      float64          `json:"risk"`
}

// Assessment aggregates holding-level risk factors
type Assessment struct {
	Holdings         []HoldingRisk  `json:"holdings"`
	WeightedRisk     float64        `json:"weightedRisk"`
	CreditRisk       float64        `json:"creditRisk"`
	InterestRateRisk float64        `json:"interestRateRisk"`
	HerfindahlIndex  float64        `json:"herfindahlIndex"`
	StressTests      []StressResult `json:"stressTests"`
}

// StressTest applies the fixed shock scenarios to the snapshot.
// Broad shocks scale the whole portfolio; the rate hike reprices bonds only,
// by duration × 2% where duration is years to maturity (5 when unknown).
func (e *Engine) StressTest(snapshot domain.Snapshot, now time.Time) []StressResult {
	total := snapshot.TotalValue()

	results := []StressResult{
		uniformShock(ScenarioMarketCrash, total, -0.30),
		uniformShock(ScenarioModerateDecline, total, -0.15),
		rateHike(snapshot, total, now),
		uniformShock(ScenarioCurrencyShock, total, -0.10),
	}

	e.log.Debug().Float64("total_value", total).Int("scenarios", len(results)).Msg("Ran stress scenarios")
	return results
}

func uniformShock(name string, total, shock float64) StressResult {
	stressed := total * (1 + shock)
	return StressResult{
		Scenario:         name,
		CurrentValue:     total,
		StressedValue:    stressed,
		ValueImpact:      stressed - total,
		PercentageImpact: domain.Percent(stressed-total, total),
	}
}

func rateHike(snapshot domain.Snapshot, total float64, now time.Time) StressResult {
	loss := 0.0
	for _, h := range snapshot.HoldingsOfType(domain.AssetTypeBond) {
		duration := defaultBondDuration
		if h.Details != nil && h.Details.Bond != nil && h.Details.Bond.MaturityDate != nil {
			duration = h.Details.Bond.YearsToMaturity(now)
		}
		shock := math.Min(1, duration*rateHikeShock)
		loss += h.MarketValue().InexactFloat64() * shock
	}

	stressed := total - loss
	return StressResult{
		Scenario:         ScenarioInterestRateHike,
		CurrentValue:     total,
		StressedValue:    stressed,
		ValueImpact:      -loss,
		PercentageImpact: domain.Percent(-loss, total),
	}
}

// HoldingRiskLevel estimates a 0..1 risk for a single holding.
//
//	STOCK: beta×0.4 + marketCap×0.3 + sector×0.3 (beta 1 when unknown)
//	BOND:  maturity×0.5 + credit×0.5
//	GOLD:  0.3
//	CASH:  0
func HoldingRiskLevel(h domain.Holding, now time.Time) float64 {
	switch h.AssetType {
	case domain.AssetTypeStock:
		beta, capRisk := 1.0, defaultHoldingRisk
		if h.Details != nil && h.Details.Stock != nil {
			if h.Details.Stock.Beta != 0 {
				beta = h.Details.Stock.Beta
			}
			capRisk = marketCapRisk(h.Details.Stock.MarketCap)
		}
		return beta*0.4 + capRisk*0.3 + sectorBaseRisk*0.3
	case domain.AssetTypeBond:
		var bond *domain.BondDetails
		if h.Details != nil {
			bond = h.Details.Bond
		}
		return maturityRisk(bond, now)*0.5 + CreditRatingRisk(ratingOf(bond))*0.5
	case domain.AssetTypeGold:
		return goldBaseRisk
	case domain.AssetTypeCash:
		return 0
	default:
		return defaultHoldingRisk
	}
}

// CreditRatingRisk maps a rating to 0.1 (AAA) .. 1.0 (C); unknown ratings are 0.5
func CreditRatingRisk(rating string) float64 {
	if r, ok := creditRatingRisk[strings.ToUpper(strings.TrimSpace(rating))]; ok {
		return r
	}
	return defaultHoldingRisk
}

func ratingOf(b *domain.BondDetails) string {
	if b == nil {
		return ""
	}
	return b.CreditRating
}

func maturityRisk(b *domain.BondDetails, now time.Time) float64 {
	if b == nil || b.MaturityDate == nil {
		return defaultHoldingRisk
	}
	return math.Min(b.YearsToMaturity(now)/maturityHorizonYears, 1)
}

func marketCapRisk(marketCap string) float64 {
	switch strings.ToUpper(marketCap) {
	case "LARGE":
		return 0.3
	case "MID":
		return 0.5
	case "SMALL":
		return 0.8
	default:
		return defaultHoldingRisk
	}
}

// Assess computes holding-level risk, bond factor averages, HHI and stress results
func (e *Engine) Assess(snapshot domain.Snapshot, now time.Time) Assessment {
	total := snapshot.TotalValue()
	a := Assessment{
		Holdings:        make([]HoldingRisk, 0, len(snapshot.Holdings)),
		HerfindahlIndex: HerfindahlIndex(snapshot.Allocation()),
		StressTests:     e.StressTest(snapshot, now),
	}

	for _, h := range snapshot.Holdings {
		level := HoldingRiskLevel(h, now)
		weight := 0.0
		if total > 0 {
			weight = h.MarketValue().InexactFloat64() / total
		}
		a.WeightedRisk += level * weight
		a.Holdings = append(a.Holdings, HoldingRisk{
			Symbol:    h.Symbol,
			AssetType: h.AssetType,
			Weight:    weight * 100,
			Risk:      level,
		})
	}

	bonds := snapshot.HoldingsOfType(domain.AssetTypeBond)
	if len(bonds) > 0 {
		for _, b := range bonds {
			var details *domain.BondDetails
			if b.Details != nil {
				details = b.Details.Bond
			}
			a.CreditRisk += CreditRatingRisk(ratingOf(details))
			a.InterestRateRisk += maturityRisk(details, now)
		}
		a.CreditRisk /= float64(len(bonds))
		a.InterestRateRisk /= float64(len(bonds))
	}

	return a
}

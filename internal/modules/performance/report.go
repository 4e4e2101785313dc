package performance

import (
	"fmt"
	"math"
	"time"

	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/pkg/formulas"
)

// InsightType is the tone of an insight
type InsightType string

const (
	InsightPositive InsightType = "POSITIVE"
	InsightNegative InsightType = "NEGATIVE"
	InsightWarning  InsightType = "WARNING"
	InsightInfo     InsightType = "INFO"
)

// InsightCategory is what an insight is about
type InsightCategory string

const (
	CategoryOverall     InsightCategory = "OVERALL"
	CategoryWinRate     InsightCategory = "WIN_RATE"
	CategoryAssetType   InsightCategory = "ASSET_TYPE"
	CategoryAttribution InsightCategory = "ATTRIBUTION"
)

// Insight is a threshold-triggered observation about performance
type Insight struct {
	Type     InsightType     `json:"type"`
	Category InsightCategory `json:"category"`
	Message  string          `json:"message"`
}

// BenchmarkComparison compares the portfolio return to the average benchmark return
type BenchmarkComparison struct {
	BenchmarkReturn  float64 `json:"benchmarkReturn"`
	PortfolioReturn  float64 `json:"portfolioReturn"`
	Outperformance   float64 `json:"outperformance"`
	IsOutperforming  bool    `json:"isOutperforming"`
	InformationRatio float64 `json:"informationRatio"`
}

// FullReport combines performance, attribution, benchmark comparison and insights
type FullReport struct {
	Report
	Attribution         []Attribution        `json:"attribution"`
	BenchmarkComparison *BenchmarkComparison `json:"benchmarkComparison"`
	Insights            []Insight            `json:"insights"`
	GeneratedAt         time.Time            `json:"generatedAt"`
}

// GenerateReport builds the full performance report.
// benchmarkReturns are periodic fractional returns; the comparison is omitted when empty.
func (a *Analyzer) GenerateReport(snapshot domain.Snapshot, historicalValues, benchmarkReturns []float64) FullReport {
	performance := a.AnalyzePerformance(snapshot, historicalValues)
	attribution := a.CalculateAttribution(snapshot)

	report := FullReport{
		Report:      performance,
		Attribution: attribution,
		Insights:    GenerateInsights(performance, attribution),
		GeneratedAt: a.now().UTC(),
	}

	if len(benchmarkReturns) > 0 {
		benchmark := formulas.Mean(benchmarkReturns) * 100
		outperformance := performance.Summary.PercentReturn - benchmark
		report.BenchmarkComparison = &BenchmarkComparison{
			BenchmarkReturn: benchmark,
			PortfolioReturn: performance.Summary.PercentReturn,
			Outperformance:  outperformance,
			IsOutperforming: outperformance > 0,
		}
		portfolioReturns := formulas.CalculateReturns(historicalValues)
		if len(portfolioReturns) == len(benchmarkReturns) {
			report.BenchmarkComparison.InformationRatio = formulas.InformationRatio(portfolioReturns, benchmarkReturns)
		}
	}

	return report
}

// GenerateInsights applies the insight rules in a fixed order
func GenerateInsights(performance Report, attribution []Attribution) []Insight {
	insights := []Insight{}
	s := performance.Summary

	if s.PercentReturn > 10 {
		insights = append(insights, Insight{
			Type:     InsightPositive,
			Category: CategoryOverall,
			Message:  fmt.Sprintf("Strong performance with %.2f%% return.", s.PercentReturn),
		})
	} else if s.PercentReturn < -5 {
		insights = append(insights, Insight{
			Type:     InsightNegative,
			Category: CategoryOverall,
			Message:  fmt.Sprintf("Portfolio is down %.2f%%. Consider reviewing your strategy.", math.Abs(s.PercentReturn)),
		})
	}

	if s.WinRate > 70 {
		insights = append(insights, Insight{
			Type:     InsightPositive,
			Category: CategoryWinRate,
			Message:  fmt.Sprintf("Excellent win rate of %.1f%%. Most investments are profitable.", s.WinRate),
		})
	} else if s.WinRate < 40 {
		insights = append(insights, Insight{
			Type:     InsightWarning,
			Category: CategoryWinRate,
			Message:  fmt.Sprintf("Low win rate of %.1f%%. Consider reviewing losing positions.", s.WinRate),
		})
	}

	for _, tp := range performance.TypePerformance {
		if tp.GainPercentage > 15 {
			insights = append(insights, Insight{
				Type:     InsightPositive,
				Category: CategoryAssetType,
				Message:  fmt.Sprintf("%s investments performing well with %.2f%% return.", tp.AssetType, tp.GainPercentage),
			})
		} else if tp.GainPercentage < -10 {
			insights = append(insights, Insight{
				Type:     InsightNegative,
				Category: CategoryAssetType,
				Message:  fmt.Sprintf("%s investments underperforming with %.2f%% loss.", tp.AssetType, tp.GainPercentage),
			})
		}
	}

	if len(attribution) > 0 {
		top := attribution[0]
		if top.Contribution > 5 {
			insights = append(insights, Insight{
				Type:     InsightInfo,
				Category: CategoryAttribution,
				Message:  fmt.Sprintf("%s is the top contributor, adding %.2f%% to portfolio returns.", top.Symbol, top.Contribution),
			})
		}

		bottom := attribution[len(attribution)-1]
		if bottom.Contribution < -3 {
			insights = append(insights, Insight{
				Type:     InsightWarning,
				Category: CategoryAttribution,
				Message:  fmt.Sprintf("%s is dragging down returns by %.2f%%.", bottom.Symbol, math.Abs(bottom.Contribution)),
			})
		}
	}

	return insights
}

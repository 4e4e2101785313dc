package formulas

import "math"

// DefaultRiskFreeRate is the annual risk-free rate assumed when none is configured.
const DefaultRiskFreeRate = 0.05

// SharpeRatio calculates the annualized Sharpe ratio of periodic returns.
//
// Formula:
//
//	annReturn   = mean × 252
//	annStdDev   = stdDev × sqrt(252)
//	Sharpe      = (annReturn - riskFreeRate) / annStdDev
//
// Returns 0 when the annualized deviation is 0 (including empty input).
func SharpeRatio(returns []float64, riskFreeRate float64) float64 {
	annStdDev := StdDev(returns) * math.Sqrt(TradingDaysPerYear)
	if annStdDev == 0 {
		return 0
	}

	annReturn := Mean(returns) * TradingDaysPerYear
	return (annReturn - riskFreeRate) / annStdDev
}

// SortinoRatio calculates the Sortino ratio against a target return.
//
// Downside deviation squares only the returns below target, but divides by the
// full number of observations. The result is not annualized.
func SortinoRatio(returns []float64, target float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	sumSquares := 0.0
	for _, r := range returns {
		if r < target {
			sumSquares += (r - target) * (r - target)
		}
	}

	downsideDeviation := math.Sqrt(sumSquares / float64(len(returns)))
	if downsideDeviation == 0 {
		return 0
	}

	return (Mean(returns) - target) / downsideDeviation
}

// Beta measures sensitivity of portfolio returns to market returns:
// Cov(p, m) / Var(m) with population formulas.
// Mismatched lengths, empty input or a flat market return neutral beta (1).
func Beta(portfolioReturns, marketReturns []float64) float64 {
	if len(portfolioReturns) == 0 || len(portfolioReturns) != len(marketReturns) {
		return 1
	}

	marketVariance := Variance(marketReturns)
	if marketVariance == 0 {
		return 1
	}

	return Covariance(portfolioReturns, marketReturns) / marketVariance
}

// Alpha is Jensen's alpha: portfolioReturn - (rf + beta × (marketReturn - rf))
func Alpha(portfolioReturn, marketReturn, beta, riskFreeRate float64) float64 {
	return portfolioReturn - (riskFreeRate + beta*(marketReturn-riskFreeRate))
}

// InformationRatio is the mean active return divided by the tracking error.
// Returns 0 on mismatched input or zero tracking error.
func InformationRatio(portfolioReturns, benchmarkReturns []float64) float64 {
	if len(portfolioReturns) == 0 || len(portfolioReturns) != len(benchmarkReturns) {
		return 0
	}

	active := make([]float64, len(portfolioReturns))
	for i := range portfolioReturns {
		active[i] = portfolioReturns[i] - benchmarkReturns[i]
	}

	trackingError := StdDev(active)
	if trackingError == 0 {
		return 0
	}

	return Mean(active) / trackingError
}

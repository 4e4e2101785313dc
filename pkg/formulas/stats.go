package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization factor applied to periodic returns.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// Variance calculates the population variance (divisor n).
// Empty input returns 0.
func Variance(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	_, variance := stat.PopMeanVariance(data, nil)
	return variance
}

// StdDev calculates the population standard deviation
func StdDev(data []float64) float64 {
	return math.Sqrt(Variance(data))
}

// Covariance calculates the population covariance (divisor n) of two
// equal-length series. Mismatched, empty or single-point input returns 0.
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	// stat.Covariance is the sample estimate (divisor n-1)
	n := float64(len(x))
	return stat.Covariance(x, y, nil) * (n - 1) / n
}

// AnnualizedVolatility returns the annualized volatility of periodic returns, in percent.
// Formula: StdDev × sqrt(252) × 100
func AnnualizedVolatility(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return StdDev(returns) * math.Sqrt(TradingDaysPerYear) * 100
}

// CalculateReturns converts a value series to period returns.
// Returns[i] = (v[i] - v[i-1]) / v[i-1]; periods starting from a non-positive value are skipped.
func CalculateReturns(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] > 0 {
			returns = append(returns, (values[i]-values[i-1])/values[i-1])
		}
	}

	return returns
}

// CompoundReturn chains period returns: Π(1+r) - 1
func CompoundReturn(returns []float64) float64 {
	growth := 1.0
	for _, r := range returns {
		growth *= 1 + r
	}
	return growth - 1
}

// ValuesFromReturns builds the compounded value path starting at start.
// The result has len(returns)+1 points, the first one being start.
func ValuesFromReturns(start float64, returns []float64) []float64 {
	values := make([]float64, 0, len(returns)+1)
	values = append(values, start)
	current := start
	for _, r := range returns {
		current *= 1 + r
		values = append(values, current)
	}
	return values
}

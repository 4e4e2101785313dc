package formulas

import (
	"math"
	"sort"
)

// DefaultConfidence is the confidence level used for VaR and CVaR reporting.
const DefaultConfidence = 0.95

// tailIndex sorts a copy of returns ascending and returns it together with
// floor((1-confidence)*n).
func tailIndex(returns []float64, confidence float64) ([]float64, int) {
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	return sorted, int(math.Floor((1 - confidence) * float64(len(sorted))))
}

// ValueAtRisk calculates historical Value at Risk at the given confidence level.
//
// The returns are sorted ascending and the value at index floor((1-confidence)×n)
// is reported as a positive loss. Empty input or an index outside the series returns 0.
func ValueAtRisk(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	sorted, index := tailIndex(returns, confidence)
	if index < 0 || index >= len(sorted) {
		return 0
	}

	return math.Abs(sorted[index])
}

// ConditionalVaR calculates the expected shortfall: the average of the returns
// strictly below the VaR index, reported as a positive loss.
// An empty tail returns 0.
func ConditionalVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	sorted, index := tailIndex(returns, confidence)
	if index <= 0 {
		return 0
	}
	if index > len(sorted) {
		index = len(sorted)
	}

	return math.Abs(Mean(sorted[:index]))
}

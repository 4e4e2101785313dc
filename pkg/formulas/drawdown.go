package formulas

// DrawdownMetrics represents drawdown analysis results
type DrawdownMetrics struct {
	MaxDrawdown float64 `json:"maxDrawdown"` // Maximum drawdown in percent (25 = 25% below peak)
	PeakValue   float64 `json:"peakValue"`   // Peak preceding the maximum drawdown
	TroughValue float64 `json:"troughValue"` // Value at the point of maximum drawdown
	PeakIndex   int     `json:"peakIndex"`
	TroughIndex int     `json:"troughIndex"`
}

// CalculateMaxDrawdown walks a value series keeping the running peak.
//
// Drawdown Formula:
//
//	Drawdown     = (Peak Value - Current Value) / Peak Value
//	Max Drawdown = Maximum of all drawdowns, in percent
//
// Empty input returns zeroed metrics. A series that never falls reports the
// first value as both peak and trough.
func CalculateMaxDrawdown(values []float64) DrawdownMetrics {
	if len(values) == 0 {
		return DrawdownMetrics{}
	}

	result := DrawdownMetrics{
		PeakValue:   values[0],
		TroughValue: values[0],
	}

	peak := values[0]
	peakIndex := 0
	maxDrawdown := 0.0

	for i, value := range values {
		if value > peak {
			peak = value
			peakIndex = i
		}

		if peak <= 0 {
			continue
		}

		drawdown := (peak - value) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
			result.PeakValue = peak
			result.PeakIndex = peakIndex
			result.TroughValue = value
			result.TroughIndex = i
		}
	}

	result.MaxDrawdown = maxDrawdown * 100
	return result
}

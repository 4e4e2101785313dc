package rebalancing

import (
	"fmt"
	"strings"
	"time"
)

// Frequency of periodic rebalancing
type Frequency string

const (
	FrequencyMonthly      Frequency = "MONTHLY"
	FrequencyQuarterly    Frequency = "QUARTERLY"
	FrequencySemiannually Frequency = "SEMIANNUALLY"
	FrequencyAnnually     Frequency = "ANNUALLY"
)

// Schedule describes when the next periodic rebalance is due
type Schedule struct {
	Frequency         Frequency `json:"frequency"`
	DaysInterval      int       `json:"daysInterval"`
	Description       string    `json:"description"`
	NextRebalanceDate time.Time `json:"nextRebalanceDate"`
}

var schedules = map[Frequency]Schedule{
	FrequencyMonthly:      {Frequency: FrequencyMonthly, DaysInterval: 30, Description: "Rebalance every month"},
	FrequencyQuarterly:    {Frequency: FrequencyQuarterly, DaysInterval: 90, Description: "Rebalance every quarter"},
	FrequencySemiannually: {Frequency: FrequencySemiannually, DaysInterval: 180, Description: "Rebalance twice per year"},
	FrequencyAnnually:     {Frequency: FrequencyAnnually, DaysInterval: 365, Description: "Rebalance once per year"},
}

// ParseFrequency validates a frequency name (case-insensitive)
func ParseFrequency(name string) (Frequency, error) {
	f := Frequency(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := schedules[f]; !ok {
		return "", fmt.Errorf("unknown rebalance frequency %q", name)
	}
	return f, nil
}

// GenerateSchedule returns the schedule for frequency, defaulting to QUARTERLY
func GenerateSchedule(frequency string, now time.Time) Schedule {
	s, ok := schedules[Frequency(strings.ToUpper(strings.TrimSpace(frequency)))]
	if !ok {
		s = schedules[FrequencyQuarterly]
	}
	s.NextRebalanceDate = now.AddDate(0, 0, s.DaysInterval)
	return s
}

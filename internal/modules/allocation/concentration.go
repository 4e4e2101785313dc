// Package allocation breaks a portfolio down by asset type and sector and
// flags over-weight positions.
package allocation

import (
	"fmt"

	"github.com/folioworks/folio/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultConcentrationThreshold is the allocation (percent) above which an
// asset type raises an alert
const DefaultConcentrationThreshold = 30.0

// Alert severities
const (
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)

// criticalMultiplier escalates an alert once the allocation reaches this
// multiple of the threshold
const criticalMultiplier = 1.5

// ConcentrationChecker detects asset types above a fixed threshold
type ConcentrationChecker struct {
	threshold float64
	log       zerolog.Logger
}

// NewConcentrationChecker creates a checker. A non-positive threshold falls
// back to DefaultConcentrationThreshold.
func NewConcentrationChecker(threshold float64, log zerolog.Logger) *ConcentrationChecker {
	if threshold <= 0 {
		threshold = DefaultConcentrationThreshold
	}
	return &ConcentrationChecker{
		threshold: threshold,
		log:       log.With().Str("service", "concentration_alerts").Logger(),
	}
}

// Threshold returns the configured limit in percent
func (c *ConcentrationChecker) Threshold() float64 {
	return c.threshold
}

// CheckConcentration returns one alert per asset type strictly above the
// threshold, in canonical type order. Cash is never flagged.
func (c *ConcentrationChecker) CheckConcentration(snapshot domain.Snapshot) []domain.ConcentrationAlert {
	alerts := []domain.ConcentrationAlert{}

	allocation := snapshot.Allocation()
	for _, t := range snapshot.AssetTypes() {
		if t == domain.AssetTypeCash {
			continue
		}
		pct := allocation[t]
		if pct <= c.threshold {
			continue
		}
		alerts = append(alerts, domain.ConcentrationAlert{
			AssetType:  t,
			CurrentPct: pct,
			LimitPct:   c.threshold,
			Severity:   Severity(pct, c.threshold),
			Message:    fmt.Sprintf("%s allocation (%.2f%%) exceeds %.0f%% threshold", t, pct, c.threshold),
		})
	}

	if len(alerts) > 0 {
		c.log.Debug().
			Str("portfolio_id", snapshot.PortfolioID).
			Int("alerts", len(alerts)).
			Msg("Concentration alerts detected")
	}

	return alerts
}

// Severity is CRITICAL once currentPct reaches 1.5× the limit, else WARNING
func Severity(currentPct, limitPct float64) string {
	if limitPct > 0 && currentPct >= limitPct*criticalMultiplier {
		return SeverityCritical
	}
	return SeverityWarning
}

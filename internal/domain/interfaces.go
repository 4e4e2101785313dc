package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a portfolio or holding does not exist
var ErrNotFound = errors.New("not found")

// SnapshotSource materializes stored portfolios for analytics.
// ValueHistory returns recorded total values in chronological order, at most limit points.
type SnapshotSource interface {
	Snapshot(ctx context.Context, portfolioID string) (Snapshot, error)
	ValueHistory(ctx context.Context, portfolioID string, limit int) ([]float64, error)
}

// PriceProvider resolves current market prices for symbols.
// Symbols without a quote are omitted from the result.
type PriceProvider interface {
	GetPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// ConcentrationAlertProvider detects over-weight asset types without
// requiring a dependency on the allocation package.
type ConcentrationAlertProvider interface {
	CheckConcentration(snapshot Snapshot) []ConcentrationAlert
}

// ConcentrationAlert represents an asset type above its concentration threshold
type ConcentrationAlert struct {
	AssetType  AssetType `json:"assetType"`
	CurrentPct float64   `json:"currentPct"`
	LimitPct   float64   `json:"limitPct"`
	Severity   string    `json:"severity"`
	Message    string    `json:"message"`
}

// Package portfolio stores portfolios and their holdings and turns them into
// analytics snapshots.
package portfolio

import (
	"time"

	"github.com/folioworks/folio/internal/domain"
)

// Portfolio is a named, user-owned set of holdings with an optional target
// allocation
type Portfolio struct {
	ID               string                       `json:"id"`
	UserID           string                       `json:"userId,omitempty"`
	Name             string                       `json:"name"`
	TargetAllocation map[domain.AssetType]float64 `json:"targetAllocation,omitempty"`
	Holdings         []domain.Holding             `json:"holdings"`
	CreatedAt        time.Time                    `json:"createdAt"`
	UpdatedAt        time.Time                    `json:"updatedAt"`
}

// Snapshot converts the portfolio into the analytics input
func (p *Portfolio) Snapshot() domain.Snapshot {
	holdings := make([]domain.Holding, len(p.Holdings))
	copy(holdings, p.Holdings)
	return domain.Snapshot{
		PortfolioID:      p.ID,
		Holdings:         holdings,
		TargetAllocation: p.TargetAllocation,
	}
}

// ValuePoint is a recorded total portfolio value
type ValuePoint struct {
	RecordedAt time.Time `json:"recordedAt"`
	TotalValue float64   `json:"totalValue"`
}

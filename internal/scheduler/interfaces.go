package scheduler

import (
	"context"

	"github.com/folioworks/folio/internal/modules/portfolio"
)

// PriceRefresher re-quotes every held symbol
type PriceRefresher interface {
	RefreshPrices(ctx context.Context) (portfolio.RefreshResult, error)
}

// ValueRecorder appends a value point per portfolio
type ValueRecorder interface {
	RecordValues(ctx context.Context) (int, error)
}

package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const refreshTimeout = 2 * time.Minute

// RefreshPricesJob updates holding prices from the market data provider
type RefreshPricesJob struct {
	service PriceRefresher
	log     zerolog.Logger
}

// NewRefreshPricesJob creates a new RefreshPricesJob
func NewRefreshPricesJob(service PriceRefresher, log zerolog.Logger) *RefreshPricesJob {
	return &RefreshPricesJob{
		service: service,
		log:     log.With().Str("job", "refresh_prices").Logger(),
	}
}

// Name returns the job name
func (j *RefreshPricesJob) Name() string {
	return "refresh_prices"
}

// Run executes the refresh. Symbols the provider could not quote keep their
// previous price and are only logged.
func (j *RefreshPricesJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	result, err := j.service.RefreshPrices(ctx)
	if err != nil {
		return err
	}

	if len(result.Failed) > 0 {
		j.log.Warn().Strs("symbols", result.Failed).Msg("Some symbols could not be quoted")
	}
	j.log.Info().
		Int("updated", result.Updated).
		Int("portfolios", len(result.Portfolios)).
		Msg("Price refresh completed")
	return nil
}

package di

import (
	"context"
	"fmt"

	"github.com/folioworks/folio/internal/clients/marketdata"
	"github.com/folioworks/folio/internal/config"
	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/events"
	"github.com/folioworks/folio/internal/modules/allocation"
	"github.com/folioworks/folio/internal/modules/dividends"
	"github.com/folioworks/folio/internal/modules/performance"
	"github.com/folioworks/folio/internal/modules/portfolio"
	"github.com/folioworks/folio/internal/modules/rebalancing"
	"github.com/folioworks/folio/internal/modules/risk"
	"github.com/folioworks/folio/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices creates clients, engines and services. The market data
// client and the backup service are only created when configured.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.EventManager = events.NewManager(log)

	container.RiskEngine = risk.NewEngine(log)
	container.PerformanceAnalyzer = performance.NewAnalyzer(log)
	container.Rebalancer = rebalancing.NewRebalancer(log)
	container.IncomeProjector = dividends.NewProjector(log)
	container.ConcentrationChecker = allocation.NewConcentrationChecker(cfg.Analytics.ConcentrationThreshold, log)

	var prices domain.PriceProvider
	if cfg.MarketData.Enabled() {
		container.MarketDataClient = marketdata.NewClient(
			cfg.MarketData.URL,
			cfg.MarketData.APIKey,
			log,
			marketdata.WithRateLimit(cfg.MarketData.RequestsPerSecond),
			marketdata.WithCache(container.ClientDataRepo),
		)
		prices = container.MarketDataClient
	} else {
		log.Warn().Msg("Market data URL not configured, price refresh disabled")
	}

	container.PortfolioService = portfolio.NewPortfolioService(
		container.PortfolioRepo,
		prices,
		container.ConcentrationChecker,
		container.EventManager,
		log,
	)

	if cfg.Backup.Enabled() {
		store, err := reliability.NewS3Client(ctx, reliability.S3Config{
			Bucket:          cfg.Backup.Bucket,
			Region:          cfg.Backup.Region,
			Endpoint:        cfg.Backup.Endpoint,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create backup client: %w", err)
		}
		container.BackupService = reliability.NewBackupService(
			store,
			container.DB,
			cfg.DataDir,
			cfg.Backup.Prefix,
			container.EventManager,
			log,
		)
	}

	log.Info().
		Bool("market_data", container.MarketDataClient != nil).
		Bool("backups", container.BackupService != nil).
		Msg("Services initialized")
	return nil
}

package di

import (
	"context"
	"testing"

	"github.com/folioworks/folio/internal/config"
	"github.com/folioworks/folio/internal/scheduler"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir: t.TempDir(),
		Port:    8080,
		Schedules: config.ScheduleConfig{
			PriceRefresh:  "@every 5m",
			ValueSnapshot: "@daily",
			Backup:        "@daily",
			Maintenance:   "@hourly",
		},
		Analytics: config.DefaultAnalytics(),
	}
}

func TestWire_MinimalConfig(t *testing.T) {
	cfg := testConfig(t)

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	assert.NotNil(t, container.DB)
	assert.NotNil(t, container.PortfolioRepo)
	assert.NotNil(t, container.ClientDataRepo)
	assert.NotNil(t, container.PortfolioService)
	assert.NotNil(t, container.EventManager)
	assert.NotNil(t, container.RiskEngine)
	assert.NotNil(t, container.ConcentrationChecker)

	// optional collaborators stay off without configuration
	assert.Nil(t, container.MarketDataClient)
	assert.Nil(t, container.BackupService)
	assert.Nil(t, jobs.RefreshPrices)
	assert.Nil(t, jobs.Backup)

	names := make([]string, 0)
	for name := range jobs.All() {
		names = append(names, name)
	}
	assert.ElementsMatch(t, []string{"record_values", "check_wal_checkpoints", "client_data_cleanup", "daily_maintenance"}, names)
}

func TestWire_WithMarketData(t *testing.T) {
	cfg := testConfig(t)
	cfg.MarketData = config.MarketDataConfig{URL: "http://127.0.0.1:1", APIKey: "key", RequestsPerSecond: 5}

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	assert.NotNil(t, container.MarketDataClient)
	assert.NotNil(t, jobs.RefreshPrices)
}

func TestWire_WithBackups(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backup = config.BackupConfig{
		Bucket:          "folio",
		Region:          "auto",
		Endpoint:        "http://127.0.0.1:9000",
		AccessKeyID:     "id",
		SecretAccessKey: "secret",
		Prefix:          "folio-backups/",
		RetentionDays:   30,
	}

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	assert.NotNil(t, container.BackupService)
	assert.NotNil(t, jobs.Backup)
}

func TestScheduleJobs(t *testing.T) {
	cfg := testConfig(t)
	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	assert.NoError(t, ScheduleJobs(scheduler.New(zerolog.Nop()), jobs, cfg))

	cfg.Schedules.ValueSnapshot = "whenever"
	assert.Error(t, ScheduleJobs(scheduler.New(zerolog.Nop()), jobs, cfg))
}

func TestInitializeRepositories_NilContainer(t *testing.T) {
	assert.Error(t, InitializeRepositories(nil, zerolog.Nop()))
	_, err := RegisterJobs(nil, testConfig(t), zerolog.Nop())
	assert.Error(t, err)
}

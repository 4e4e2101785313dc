package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, values map[string]string) {
	t.Helper()
	for k, v := range values {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	setEnv(t, map[string]string{"FOLIO_DATA_DIR": dataDir, "FOLIO_ANALYTICS_FILE": ""})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.DirExists(t, dataDir)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, filepath.Join(dataDir, "folio.db"), cfg.DatabasePath())
	assert.False(t, cfg.MarketData.Enabled())
	assert.False(t, cfg.Backup.Enabled())
	assert.Equal(t, "@every 5m", cfg.Schedules.PriceRefresh)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, DefaultAnalytics(), cfg.Analytics)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setEnv(t, map[string]string{
		"FOLIO_DATA_DIR":        t.TempDir(),
		"FOLIO_PORT":            "9090",
		"DEV_MODE":              "true",
		"FOLIO_JWT_SECRET":      "s3cret",
		"MARKET_DATA_URL":       "https://quotes.example.com",
		"MARKET_DATA_RPS":       "2.5",
		"BACKUP_S3_BUCKET":      "backups",
		"BACKUP_SCHEDULE":       "0 3 * * *",
		"FOLIO_ALLOWED_ORIGINS": "https://app.example.com, https://admin.example.com",
		"FOLIO_ANALYTICS_FILE":  "",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.True(t, cfg.MarketData.Enabled())
	assert.Equal(t, 2.5, cfg.MarketData.RequestsPerSecond)
	assert.True(t, cfg.Backup.Enabled())
	assert.Equal(t, "0 3 * * *", cfg.Schedules.Backup)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidPort(t *testing.T) {
	setEnv(t, map[string]string{"FOLIO_DATA_DIR": t.TempDir(), "FOLIO_PORT": "70000", "FOLIO_ANALYTICS_FILE": ""})

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadAnalytics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.toml")
	content := `
risk_free_rate = 0.03
dividend_yield = 0.025
default_strategy = "aggressive"
rebalance_frequency = "MONTHLY"
concentration_threshold = 40

[sector_groups]
TECH = ["Technology", "Communication Services"]
DEFENSIVE = ["Utilities", "Consumer Staples"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	analytics, err := LoadAnalytics(path)
	require.NoError(t, err)
	require.NoError(t, analytics.Validate())

	assert.Equal(t, 0.03, analytics.RiskFreeRate)
	assert.Equal(t, 0.025, analytics.DividendYield)
	assert.Equal(t, "aggressive", analytics.DefaultStrategy)
	assert.Equal(t, "MONTHLY", analytics.RebalanceFrequency)
	assert.Equal(t, 40.0, analytics.ConcentrationThreshold)
	assert.Equal(t, []string{"Technology", "Communication Services"}, analytics.SectorGroups["TECH"])
}

func TestLoadAnalytics_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.toml")
	require.NoError(t, os.WriteFile(path, []byte("risk_free_rate = 0.01\n"), 0644))

	analytics, err := LoadAnalytics(path)
	require.NoError(t, err)

	defaults := DefaultAnalytics()
	assert.Equal(t, 0.01, analytics.RiskFreeRate)
	assert.Equal(t, defaults.DividendYield, analytics.DividendYield)
	assert.Equal(t, defaults.DefaultStrategy, analytics.DefaultStrategy)
}

func TestLoadAnalytics_MissingFile(t *testing.T) {
	analytics, err := LoadAnalytics(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAnalytics(), analytics)
}

func TestLoadAnalytics_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.toml")
	require.NoError(t, os.WriteFile(path, []byte("risk_free_rate = ["), 0644))

	_, err := LoadAnalytics(path)
	assert.Error(t, err)
}

func TestAnalyticsConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*AnalyticsConfig)
	}{
		{"unknown strategy", func(a *AnalyticsConfig) { a.DefaultStrategy = "YOLO" }},
		{"unknown frequency", func(a *AnalyticsConfig) { a.RebalanceFrequency = "WEEKLY" }},
		{"negative yield", func(a *AnalyticsConfig) { a.DividendYield = -0.01 }},
		{"threshold above 100", func(a *AnalyticsConfig) { a.ConcentrationThreshold = 120 }},
		{"empty sector group", func(a *AnalyticsConfig) { a.SectorGroups = map[string][]string{"TECH": {}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := DefaultAnalytics()
			tt.modify(&a)
			assert.Error(t, a.Validate())
		})
	}

	assert.NoError(t, DefaultAnalytics().Validate())
}

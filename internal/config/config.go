// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/folioworks/folio/internal/modules/allocation"
	"github.com/folioworks/folio/internal/modules/dividends"
	"github.com/folioworks/folio/internal/modules/rebalancing"
	"github.com/folioworks/folio/internal/utils"
	"github.com/folioworks/folio/pkg/formulas"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds application configuration
type Config struct {
	DataDir   string // Base directory for the database and backups (always absolute)
	Port      int
	LogLevel  string
	DevMode   bool
	JWTSecret string // Empty disables authentication on portfolio, event and system routes

	AllowedOrigins []string // CORS and websocket origin patterns

	MarketData MarketDataConfig
	Backup     BackupConfig
	Schedules  ScheduleConfig
	Analytics  AnalyticsConfig
}

// MarketDataConfig configures the quote client
type MarketDataConfig struct {
	URL               string
	APIKey            string
	RequestsPerSecond float64
}

// Enabled reports whether a quote source is configured
func (c MarketDataConfig) Enabled() bool {
	return c.URL != ""
}

// BackupConfig configures S3-compatible database backups (AWS S3, Cloudflare R2, MinIO)
type BackupConfig struct {
	Bucket          string
	Region          string
	Endpoint        string // Custom endpoint for R2/MinIO; empty uses AWS
	AccessKeyID     string // Empty uses the default AWS credential chain
	SecretAccessKey string
	Prefix          string
	RetentionDays   int // Older backups are rotated out; 0 keeps all
}

// Enabled reports whether a backup bucket is configured
func (c BackupConfig) Enabled() bool {
	return c.Bucket != ""
}

// ScheduleConfig holds cron specs for background jobs
type ScheduleConfig struct {
	PriceRefresh  string
	ValueSnapshot string
	Backup        string
	Maintenance   string
}

// AnalyticsConfig holds the analytics assumptions, read from a TOML file
type AnalyticsConfig struct {
	RiskFreeRate           float64             `toml:"risk_free_rate"`
	DividendYield          float64             `toml:"dividend_yield"`
	DefaultStrategy        string              `toml:"default_strategy"`
	RebalanceFrequency     string              `toml:"rebalance_frequency"`
	ConcentrationThreshold float64             `toml:"concentration_threshold"`
	SectorGroups           map[string][]string `toml:"sector_groups"`
}

// DefaultAnalytics returns the built-in assumptions
func DefaultAnalytics() AnalyticsConfig {
	return AnalyticsConfig{
		RiskFreeRate:           formulas.DefaultRiskFreeRate,
		DividendYield:          dividends.DefaultDividendYield,
		DefaultStrategy:        string(rebalancing.StrategyModerate),
		RebalanceFrequency:     string(rebalancing.FrequencyQuarterly),
		ConcentrationThreshold: allocation.DefaultConcentrationThreshold,
	}
}

// Load reads configuration from .env, environment variables and the
// optional analytics file named by FOLIO_ANALYTICS_FILE
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir, err := filepath.Abs(getEnv("FOLIO_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:   dataDir,
		Port:      getEnvAsInt("FOLIO_PORT", 8080),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		DevMode:   getEnvAsBool("DEV_MODE", false),
		JWTSecret: getEnv("FOLIO_JWT_SECRET", ""),

		AllowedOrigins: getEnvAsList("FOLIO_ALLOWED_ORIGINS", []string{"*"}),
		MarketData: MarketDataConfig{
			URL:               getEnv("MARKET_DATA_URL", ""),
			APIKey:            getEnv("MARKET_DATA_API_KEY", ""),
			RequestsPerSecond: getEnvAsFloat("MARKET_DATA_RPS", 5),
		},
		Backup: BackupConfig{
			Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
			Region:          getEnv("BACKUP_S3_REGION", "auto"),
			Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
			Prefix:          getEnv("BACKUP_S3_PREFIX", "folio-backups/"),
			RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		},
		Schedules: ScheduleConfig{
			PriceRefresh:  getEnv("PRICE_REFRESH_SCHEDULE", "@every 5m"),
			ValueSnapshot: getEnv("VALUE_SNAPSHOT_SCHEDULE", "@daily"),
			Backup:        getEnv("BACKUP_SCHEDULE", "@daily"),
			Maintenance:   getEnv("MAINTENANCE_SCHEDULE", "@hourly"),
		},
	}

	cfg.Analytics, err = LoadAnalytics(getEnv("FOLIO_ANALYTICS_FILE", ""))
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAnalytics reads the analytics assumptions file over the defaults.
// An empty or missing path yields the defaults.
func LoadAnalytics(path string) (AnalyticsConfig, error) {
	analytics := DefaultAnalytics()
	if path == "" {
		return analytics, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return analytics, nil
	}
	if err != nil {
		return analytics, fmt.Errorf("failed to read analytics file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &analytics); err != nil {
		return analytics, fmt.Errorf("failed to parse analytics file %s: %w", path, err)
	}
	return analytics, nil
}

// DatabasePath returns the location of the portfolio database
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "folio.db")
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MarketData.RequestsPerSecond <= 0 {
		return fmt.Errorf("MARKET_DATA_RPS must be positive")
	}
	if c.Backup.Enabled() && c.Backup.AccessKeyID != "" && c.Backup.SecretAccessKey == "" {
		return fmt.Errorf("BACKUP_S3_SECRET_ACCESS_KEY is required with BACKUP_S3_ACCESS_KEY_ID")
	}
	return c.Analytics.Validate()
}

// Validate checks the analytics assumptions
func (a AnalyticsConfig) Validate() error {
	if _, err := rebalancing.ParseStrategy(a.DefaultStrategy); err != nil {
		return fmt.Errorf("default_strategy: %w", err)
	}
	if _, err := rebalancing.ParseFrequency(a.RebalanceFrequency); err != nil {
		return fmt.Errorf("rebalance_frequency: %w", err)
	}
	if a.DividendYield < 0 {
		return fmt.Errorf("dividend_yield must not be negative")
	}
	if a.ConcentrationThreshold < 0 || a.ConcentrationThreshold > 100 {
		return fmt.Errorf("concentration_threshold must be between 0 and 100")
	}
	for group, sectors := range a.SectorGroups {
		if strings.TrimSpace(group) == "" || len(sectors) == 0 {
			return fmt.Errorf("sector group %q must be named and list at least one sector", group)
		}
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if values := utils.ParseCSV(os.Getenv(key)); len(values) > 0 {
		return values
	}
	return defaultValue
}

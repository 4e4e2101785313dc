// Package di wires the application's dependencies together.
package di

import (
	"github.com/folioworks/folio/internal/clientdata"
	"github.com/folioworks/folio/internal/clients/marketdata"
	"github.com/folioworks/folio/internal/database"
	"github.com/folioworks/folio/internal/events"
	"github.com/folioworks/folio/internal/modules/allocation"
	"github.com/folioworks/folio/internal/modules/dividends"
	"github.com/folioworks/folio/internal/modules/performance"
	"github.com/folioworks/folio/internal/modules/portfolio"
	"github.com/folioworks/folio/internal/modules/rebalancing"
	"github.com/folioworks/folio/internal/modules/risk"
	"github.com/folioworks/folio/internal/reliability"
	"github.com/folioworks/folio/internal/scheduler"
)

// Container holds all dependencies for the application. It is created by
// Wire and handed to the server and the scheduler.
type Container struct {
	DB *database.DB

	// Repositories
	PortfolioRepo  *portfolio.Repository
	ClientDataRepo *clientdata.Repository

	// Clients (nil when not configured)
	MarketDataClient *marketdata.Client
	BackupService    *reliability.BackupService

	// Engines
	RiskEngine           *risk.Engine
	PerformanceAnalyzer  *performance.Analyzer
	Rebalancer           *rebalancing.Rebalancer
	IncomeProjector      *dividends.Projector
	ConcentrationChecker *allocation.ConcentrationChecker

	// Services
	EventManager     *events.Manager
	PortfolioService *portfolio.PortfolioService
}

// Close releases the database connection
func (c *Container) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// JobInstances holds the background jobs. Optional jobs are nil when their
// dependency is not configured.
type JobInstances struct {
	RefreshPrices    *scheduler.RefreshPricesJob
	RecordValues     *scheduler.RecordValuesJob
	CheckWAL         *scheduler.CheckWALCheckpointsJob
	QuoteCleanup     *clientdata.CleanupJob
	DailyMaintenance *reliability.DailyMaintenanceJob
	Backup           *reliability.BackupJob
}

// All returns the registered jobs keyed by name
func (j *JobInstances) All() map[string]scheduler.Job {
	out := make(map[string]scheduler.Job)
	add := func(job scheduler.Job, present bool) {
		if present {
			out[job.Name()] = job
		}
	}
	add(j.RefreshPrices, j.RefreshPrices != nil)
	add(j.RecordValues, j.RecordValues != nil)
	add(j.CheckWAL, j.CheckWAL != nil)
	add(j.QuoteCleanup, j.QuoteCleanup != nil)
	add(j.DailyMaintenance, j.DailyMaintenance != nil)
	add(j.Backup, j.Backup != nil)
	return out
}

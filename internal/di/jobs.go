package di

import (
	"fmt"

	"github.com/folioworks/folio/internal/clientdata"
	"github.com/folioworks/folio/internal/config"
	"github.com/folioworks/folio/internal/reliability"
	"github.com/folioworks/folio/internal/scheduler"
	"github.com/rs/zerolog"
)

// dailyMaintenanceSchedule runs the integrity check once per day
const dailyMaintenanceSchedule = "@daily"

// RegisterJobs creates the background jobs for the container
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	jobs := &JobInstances{
		RecordValues:     scheduler.NewRecordValuesJob(container.PortfolioService, log),
		CheckWAL:         scheduler.NewCheckWALCheckpointsJob(container.DB, log),
		QuoteCleanup:     clientdata.NewCleanupJob(container.ClientDataRepo, log),
		DailyMaintenance: reliability.NewDailyMaintenanceJob(container.DB, cfg.DataDir, log),
	}
	if container.MarketDataClient != nil {
		jobs.RefreshPrices = scheduler.NewRefreshPricesJob(container.PortfolioService, log)
	}
	if container.BackupService != nil {
		jobs.Backup = reliability.NewBackupJob(container.BackupService, cfg.Backup.RetentionDays, log)
	}

	log.Info().Int("count", len(jobs.All())).Msg("Jobs registered")
	return jobs, nil
}

// ScheduleJobs adds every registered job to sched on its configured schedule
func ScheduleJobs(sched *scheduler.Scheduler, jobs *JobInstances, cfg *config.Config) error {
	entries := []struct {
		schedule string
		job      scheduler.Job
		present  bool
	}{
		{cfg.Schedules.PriceRefresh, jobs.RefreshPrices, jobs.RefreshPrices != nil},
		{cfg.Schedules.ValueSnapshot, jobs.RecordValues, jobs.RecordValues != nil},
		{cfg.Schedules.Maintenance, jobs.CheckWAL, jobs.CheckWAL != nil},
		{cfg.Schedules.Maintenance, jobs.QuoteCleanup, jobs.QuoteCleanup != nil},
		{dailyMaintenanceSchedule, jobs.DailyMaintenance, jobs.DailyMaintenance != nil},
		{cfg.Schedules.Backup, jobs.Backup, jobs.Backup != nil},
	}

	for _, e := range entries {
		if !e.present {
			continue
		}
		if err := sched.AddJob(e.schedule, e.job); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", e.job.Name(), err)
		}
	}
	return nil
}

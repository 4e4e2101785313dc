package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const recordTimeout = time.Minute

// RecordValuesJob stores a daily value point for each portfolio. The stored
// series feeds the Sharpe and drawdown figures of the risk endpoints.
type RecordValuesJob struct {
	service ValueRecorder
	log     zerolog.Logger
}

// NewRecordValuesJob creates a new RecordValuesJob
func NewRecordValuesJob(service ValueRecorder, log zerolog.Logger) *RecordValuesJob {
	return &RecordValuesJob{
		service: service,
		log:     log.With().Str("job", "record_values").Logger(),
	}
}

// Name returns the job name
func (j *RecordValuesJob) Name() string {
	return "record_values"
}

// Run executes the job
func (j *RecordValuesJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	count, err := j.service.RecordValues(ctx)
	if err != nil {
		return err
	}
	j.log.Info().Int("portfolios", count).Msg("Recorded portfolio values")
	return nil
}

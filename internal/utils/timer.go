package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// SlowOperationThreshold is the duration above which a timed operation is
// logged at warn level
const SlowOperationThreshold = 30 * time.Second

// Timer measures how long an operation takes and logs the result
type Timer struct {
	start time.Time
	name  string
	log   zerolog.Logger
	now   func() time.Time
}

// NewTimer starts a timer for the named operation
func NewTimer(name string, log zerolog.Logger) *Timer {
	return &Timer{start: time.Now(), name: name, log: log, now: time.Now}
}

// Stop logs the elapsed duration and returns it
func (t *Timer) Stop() time.Duration {
	duration := t.now().Sub(t.start)

	if duration > SlowOperationThreshold {
		t.log.Warn().
			Str("operation", t.name).
			Dur("duration", duration).
			Msg("Slow operation detected")
	} else {
		t.log.Debug().
			Str("operation", t.name).
			Dur("duration_ms", duration).
			Msg("Operation finished")
	}

	return duration
}

// OperationTimer provides a defer-friendly way to measure operation duration
//
// Usage:
//
//	defer utils.OperationTimer("record_values", log)()
func OperationTimer(operation string, log zerolog.Logger) func() {
	t := NewTimer(operation, log)
	return func() { t.Stop() }
}

package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newTimerAt(buf *bytes.Buffer, elapsed time.Duration) *Timer {
	t := NewTimer("record_values", zerolog.New(buf).Level(zerolog.DebugLevel))
	t.now = func() time.Time { return t.start.Add(elapsed) }
	return t
}

func TestTimer_Stop(t *testing.T) {
	var buf bytes.Buffer

	d := newTimerAt(&buf, 2*time.Second).Stop()

	assert.Equal(t, 2*time.Second, d)
	assert.Contains(t, buf.String(), `"level":"debug"`)
	assert.Contains(t, buf.String(), `"operation":"record_values"`)
}

func TestTimer_StopSlow(t *testing.T) {
	var buf bytes.Buffer

	newTimerAt(&buf, time.Minute).Stop()

	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "Slow operation detected")
}

func TestOperationTimer(t *testing.T) {
	var buf bytes.Buffer

	stop := OperationTimer("backup", zerolog.New(&buf).Level(zerolog.DebugLevel))
	stop()

	assert.Contains(t, buf.String(), `"operation":"backup"`)
}

package scheduler

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/folioworks/folio/internal/modules/portfolio"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type stubRefresher struct {
	result portfolio.RefreshResult
	err    error
	calls  int
}

func (s *stubRefresher) RefreshPrices(ctx context.Context) (portfolio.RefreshResult, error) {
	s.calls++
	if _, ok := ctx.Deadline(); !ok {
		return portfolio.RefreshResult{}, errors.New("expected a deadline")
	}
	return s.result, s.err
}

type stubRecorder struct {
	count int
	err   error
}

func (s *stubRecorder) RecordValues(context.Context) (int, error) {
	return s.count, s.err
}

func TestRefreshPricesJob(t *testing.T) {
	service := &stubRefresher{result: portfolio.RefreshResult{
		Updated:    1,
		Failed:     []string{"GLD"},
		Portfolios: []string{"p1"},
	}}
	job := NewRefreshPricesJob(service, zerolog.Nop())

	assert.Equal(t, "refresh_prices", job.Name())
	assert.NoError(t, job.Run())
	assert.Equal(t, 1, service.calls)
}

func TestRefreshPricesJob_LogsCounts(t *testing.T) {
	var buf bytes.Buffer
	service := &stubRefresher{result: portfolio.RefreshResult{
		Updated:    3,
		Failed:     []string{"GLD"},
		Portfolios: []string{"p1", "p2"},
	}}

	assert.NoError(t, NewRefreshPricesJob(service, zerolog.New(&buf)).Run())

	assert.Contains(t, buf.String(), `"updated":3`)
	assert.Contains(t, buf.String(), `"portfolios":2`)
	assert.Contains(t, buf.String(), `"symbols":["GLD"]`)
}

func TestRefreshPricesJob_Error(t *testing.T) {
	job := NewRefreshPricesJob(&stubRefresher{err: errors.New("provider down")}, zerolog.Nop())
	assert.EqualError(t, job.Run(), "provider down")
}

func TestRecordValuesJob(t *testing.T) {
	job := NewRecordValuesJob(&stubRecorder{count: 2}, zerolog.Nop())
	assert.Equal(t, "record_values", job.Name())
	assert.NoError(t, job.Run())

	job = NewRecordValuesJob(&stubRecorder{err: errors.New("db locked")}, zerolog.Nop())
	assert.Error(t, job.Run())
}

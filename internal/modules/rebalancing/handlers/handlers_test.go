package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/modules/rebalancing"
	testutil "github.com/folioworks/folio/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*chi.Mux, *testutil.MockSnapshotSource) {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	source := testutil.NewMockSnapshotSource()
	handler := NewHandler(rebalancing.NewRebalancer(logger), source, "BALANCED", logger)
	handler.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router, source
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var env struct {
		Data     json.RawMessage        `json:"data"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "2025-01-01T00:00:00Z", env.Metadata["timestamp"])
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func singleStock() domain.Snapshot {
	return domain.Snapshot{Holdings: []domain.Holding{
		testutil.NewHolding("VTI", domain.AssetTypeStock, 10, 100, 150),
	}}
}

func TestHandleAnalyzeRebalance_ExplicitTarget(t *testing.T) {
	router, _ := setupRouter(t)

	body, err := json.Marshal(AnalyzeRequest{
		Snapshot: singleStock(),
		TargetRequest: TargetRequest{
			TargetAllocation: map[domain.AssetType]float64{domain.AssetTypeStock: 50, domain.AssetTypeBond: 50},
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/analytics/rebalance", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var plan rebalancing.Plan
	decodeData(t, rec, &plan)

	assert.True(t, plan.NeedsRebalancing)
	assert.InDelta(t, 100.0, plan.TotalDrift, 1e-9)
	require.Len(t, plan.Suggestions, 2)
	assert.Equal(t, rebalancing.ActionSell, plan.Suggestions[0].Action)
	assert.Equal(t, rebalancing.ActionBuy, plan.Suggestions[1].Action)
	assert.False(t, plan.TaxOptimized)
}

func TestHandleAnalyzeRebalance_StrategyAndTax(t *testing.T) {
	router, _ := setupRouter(t)

	body := `{"snapshot":{"holdings":[{"symbol":"VTI","assetType":"STOCK","quantity":10,"purchasePrice":100,"currentPrice":150}]},"strategy":"conservative","taxOptimized":true}`
	req := httptest.NewRequest(http.MethodPost, "/analytics/rebalance", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var plan rebalancing.Plan
	decodeData(t, rec, &plan)

	assert.True(t, plan.TaxOptimized)
	assert.Equal(t, 30.0, plan.TargetAllocation[domain.AssetTypeStock])
	require.NotEmpty(t, plan.Suggestions)
	for _, s := range plan.Suggestions {
		if s.Action == rebalancing.ActionSell {
			assert.Equal(t, rebalancing.TaxableGain, s.TaxImpact)
		}
	}
}

func TestHandleAnalyzeRebalance_BadInput(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", "{not json"},
		{"unknown strategy", `{"snapshot":{"holdings":[]},"strategy":"YOLO"}`},
		{"negative target", `{"snapshot":{"holdings":[]},"targetAllocation":{"STOCK":-5}}`},
		{"invalid holding", `{"snapshot":{"holdings":[{"symbol":"X","assetType":"STOCK","quantity":-1,"purchasePrice":1,"currentPrice":1}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/analytics/rebalance", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleRebalancePortfolio_UsesStoredTarget(t *testing.T) {
	router, source := setupRouter(t)
	snapshot := singleStock()
	snapshot.PortfolioID = "p1"
	snapshot.TargetAllocation = map[domain.AssetType]float64{domain.AssetTypeStock: 50, domain.AssetTypeBond: 50}
	source.SetSnapshot("p1", snapshot)

	req := httptest.NewRequest(http.MethodPost, "/portfolios/p1/rebalance", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var plan rebalancing.Plan
	decodeData(t, rec, &plan)
	assert.Equal(t, snapshot.TargetAllocation, plan.TargetAllocation)
	assert.Len(t, plan.Suggestions, 2)
}

func TestHandleRebalancePortfolio_DefaultStrategy(t *testing.T) {
	router, source := setupRouter(t)
	source.SetSnapshot("p1", singleStock())

	req := httptest.NewRequest(http.MethodPost, "/portfolios/p1/rebalance", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var plan rebalancing.Plan
	decodeData(t, rec, &plan)
	assert.Equal(t, rebalancing.GenerateTargetAllocation("BALANCED"), plan.TargetAllocation)
}

func TestHandleRebalancePortfolio_BodyOfUnknownLength(t *testing.T) {
	router, source := setupRouter(t)
	source.SetSnapshot("p1", singleStock())

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"empty", "", http.StatusOK},
		{"strategy", `{"strategy":"AGGRESSIVE"}`, http.StatusOK},
		{"malformed", `{"strategy":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// a plain io.Reader leaves ContentLength at -1, as with chunked uploads
			body := struct{ io.Reader }{strings.NewReader(tt.body)}
			req := httptest.NewRequest(http.MethodPost, "/portfolios/p1/rebalance", body)
			require.Equal(t, int64(-1), req.ContentLength)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHandleRebalancePortfolio_RequestOverridesStored(t *testing.T) {
	router, source := setupRouter(t)
	snapshot := singleStock()
	snapshot.TargetAllocation = map[domain.AssetType]float64{domain.AssetTypeStock: 100}
	source.SetSnapshot("p1", snapshot)

	req := httptest.NewRequest(http.MethodPost, "/portfolios/p1/rebalance", bytes.NewBufferString(`{"strategy":"AGGRESSIVE"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var plan rebalancing.Plan
	decodeData(t, rec, &plan)
	assert.Equal(t, 80.0, plan.TargetAllocation[domain.AssetTypeStock])
}

func TestHandleRebalancePortfolio_NotFound(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/portfolios/missing/rebalance", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRebalancePortfolio_SourceError(t *testing.T) {
	router, source := setupRouter(t)
	source.SetError(errors.New("disk on fire"))

	req := httptest.NewRequest(http.MethodPost, "/portfolios/p1/rebalance", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleGetSchedule(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/rebalancing/schedule?frequency=monthly", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var schedule rebalancing.Schedule
	decodeData(t, rec, &schedule)
	assert.Equal(t, rebalancing.FrequencyMonthly, schedule.Frequency)
	assert.Equal(t, 30, schedule.DaysInterval)
	assert.True(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC).Equal(schedule.NextRebalanceDate))
}

func TestHandleGetSchedule_DefaultFrequency(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	handler := NewHandler(rebalancing.NewRebalancer(logger), testutil.NewMockSnapshotSource(), "BALANCED", logger)
	handler.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	handler.SetDefaultFrequency("ANNUALLY")

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/rebalancing/schedule", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var schedule rebalancing.Schedule
	decodeData(t, rec, &schedule)
	assert.Equal(t, rebalancing.FrequencyAnnually, schedule.Frequency)
}

func TestHandleGetStrategy(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/rebalancing/strategies/aggressive", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Strategy         string                       `json:"strategy"`
		TargetAllocation map[domain.AssetType]float64 `json:"targetAllocation"`
	}
	decodeData(t, rec, &out)
	assert.Equal(t, "AGGRESSIVE", out.Strategy)
	assert.Equal(t, 15.0, out.TargetAllocation[domain.AssetTypeBond])

	req = httptest.NewRequest(http.MethodGet, "/rebalancing/strategies/yolo", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

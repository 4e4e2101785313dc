package rebalancing

import (
	"testing"
	"time"

	"github.com/folioworks/folio/internal/domain"
	testutil "github.com/folioworks/folio/internal/testing"
	"github.com/folioworks/folio/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRebalancer() *Rebalancer {
	return NewRebalancer(logger.New(logger.Config{Level: "error", Pretty: false}))
}

func TestCalculateRebalancing_SingleStockToHalfBonds(t *testing.T) {
	snapshot := domain.Snapshot{Holdings: []domain.Holding{
		testutil.NewHolding("VTI", domain.AssetTypeStock, 10, 100, 150),
	}}
	target := map[domain.AssetType]float64{domain.AssetTypeStock: 50, domain.AssetTypeBond: 50}

	plan := newTestRebalancer().CalculateRebalancing(snapshot, target)

	assert.True(t, plan.NeedsRebalancing)
	assert.InDelta(t, 100.0, plan.TotalDrift, 1e-9)
	assert.Equal(t, map[domain.AssetType]float64{domain.AssetTypeStock: 100}, plan.CurrentAllocation)

	require.Len(t, plan.Suggestions, 2)
	sell, buy := plan.Suggestions[0], plan.Suggestions[1]

	assert.Equal(t, domain.AssetTypeStock, sell.AssetType)
	assert.Equal(t, ActionSell, sell.Action)
	assert.InDelta(t, 750.0, sell.Amount, 1e-9)
	assert.InDelta(t, 50.0, sell.Drift, 1e-9)
	assert.Equal(t, PriorityHigh, sell.Priority)

	assert.Equal(t, domain.AssetTypeBond, buy.AssetType)
	assert.Equal(t, ActionBuy, buy.Action)
	assert.InDelta(t, 750.0, buy.Amount, 1e-9)
	assert.InDelta(t, -50.0, buy.Drift, 1e-9)
	assert.Equal(t, PriorityHigh, buy.Priority)

	assert.InDelta(t, 1.5, plan.EstimatedCost, 1e-9)
	assert.False(t, plan.TaxOptimized)
}

func TestCalculateRebalancing_AtTarget(t *testing.T) {
	plan := newTestRebalancer().CalculateRebalancing(testutil.NewSnapshotFixture(), GenerateTargetAllocation("MODERATE"))

	assert.InDelta(t, 0.0, plan.TotalDrift, 1e-9)
	assert.False(t, plan.NeedsRebalancing)
	assert.Empty(t, plan.Suggestions)
	assert.Equal(t, 0.0, plan.EstimatedCost)
}

func TestCalculateRebalancing_ZeroValue(t *testing.T) {
	target := GenerateTargetAllocation("BALANCED")

	plan := newTestRebalancer().CalculateRebalancing(domain.Snapshot{}, target)

	assert.False(t, plan.NeedsRebalancing)
	assert.Equal(t, 0.0, plan.TotalDrift)
	assert.NotNil(t, plan.Suggestions)
	assert.Empty(t, plan.Suggestions)
}

func TestCalculateRebalancing_PriorityThenDriftOrdering(t *testing.T) {
	// STOCK 70, BOND 22, GOLD 8
	snapshot := domain.Snapshot{Holdings: []domain.Holding{
		testutil.NewHolding("VTI", domain.AssetTypeStock, 70, 10, 10),
		testutil.NewHolding("BND", domain.AssetTypeBond, 22, 10, 10),
		testutil.NewHolding("GLD", domain.AssetTypeGold, 8, 10, 10),
	}}
	target := map[domain.AssetType]float64{
		domain.AssetTypeStock: 64,
		domain.AssetTypeBond:  28,
		domain.AssetTypeCash:  8,
		domain.AssetTypeGold:  0,
	}

	plan := newTestRebalancer().CalculateRebalancing(snapshot, target)

	// drifts: STOCK +6, BOND -6, GOLD +8, CASH -8; none above 10
	require.Len(t, plan.Suggestions, 4)
	assert.Equal(t, domain.AssetTypeGold, plan.Suggestions[0].AssetType)
	assert.Equal(t, domain.AssetTypeCash, plan.Suggestions[1].AssetType)
	assert.Equal(t, domain.AssetTypeStock, plan.Suggestions[2].AssetType)
	assert.Equal(t, domain.AssetTypeBond, plan.Suggestions[3].AssetType)
	for _, s := range plan.Suggestions {
		assert.Equal(t, PriorityMedium, s.Priority)
	}
	assert.InDelta(t, 28.0, plan.TotalDrift, 1e-9)
}

func TestCalculateRebalancing_HighPriorityFirst(t *testing.T) {
	// STOCK 75, BOND 25 against 60/30/10 cash
	snapshot := domain.Snapshot{Holdings: []domain.Holding{
		testutil.NewHolding("VTI", domain.AssetTypeStock, 75, 10, 10),
		testutil.NewHolding("BND", domain.AssetTypeBond, 25, 10, 10),
	}}
	target := map[domain.AssetType]float64{domain.AssetTypeStock: 60, domain.AssetTypeBond: 30, domain.AssetTypeCash: 10}

	plan := newTestRebalancer().CalculateRebalancing(snapshot, target)

	require.Len(t, plan.Suggestions, 2)
	assert.Equal(t, domain.AssetTypeStock, plan.Suggestions[0].AssetType)
	assert.Equal(t, PriorityHigh, plan.Suggestions[0].Priority)
	assert.Equal(t, domain.AssetTypeCash, plan.Suggestions[1].AssetType)
	assert.Equal(t, PriorityMedium, plan.Suggestions[1].Priority)
}

func TestCalculateRebalancing_IgnoresTypesOutsideTarget(t *testing.T) {
	snapshot := domain.Snapshot{Holdings: []domain.Holding{
		testutil.NewHolding("VTI", domain.AssetTypeStock, 50, 10, 10),
		testutil.NewHolding("GLD", domain.AssetTypeGold, 50, 10, 10),
	}}

	plan := newTestRebalancer().CalculateRebalancing(snapshot, map[domain.AssetType]float64{domain.AssetTypeStock: 50})

	assert.Equal(t, 0.0, plan.TotalDrift)
	assert.Empty(t, plan.Suggestions)
}

func TestCalculateRebalancing_Idempotent(t *testing.T) {
	r := newTestRebalancer()
	snapshot := testutil.NewSnapshotFixture()
	target := GenerateTargetAllocation("AGGRESSIVE")

	assert.Equal(t, r.CalculateRebalancing(snapshot, target), r.CalculateRebalancing(snapshot, target))
	assert.Equal(t, r.CalculateTaxEfficientRebalancing(snapshot, target), r.CalculateTaxEfficientRebalancing(snapshot, target))
}

func TestGenerateTargetAllocation(t *testing.T) {
	tests := []struct {
		strategy string
		stock    float64
		bond     float64
		gold     float64
		cash     float64
	}{
		{"CONSERVATIVE", 30, 50, 15, 5},
		{"moderate", 60, 30, 8, 2},
		{"Aggressive", 80, 15, 3, 2},
		{"BALANCED", 50, 40, 8, 2},
		{"YOLO", 60, 30, 8, 2},
		{"", 60, 30, 8, 2},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			target := GenerateTargetAllocation(tt.strategy)
			assert.Equal(t, tt.stock, target[domain.AssetTypeStock])
			assert.Equal(t, tt.bond, target[domain.AssetTypeBond])
			assert.Equal(t, tt.gold, target[domain.AssetTypeGold])
			assert.Equal(t, tt.cash, target[domain.AssetTypeCash])
		})
	}
}

func TestGenerateTargetAllocation_ReturnsCopy(t *testing.T) {
	target := GenerateTargetAllocation("MODERATE")
	target[domain.AssetTypeStock] = 0

	assert.Equal(t, 60.0, GenerateTargetAllocation("MODERATE")[domain.AssetTypeStock])
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy(" balanced ")
	require.NoError(t, err)
	assert.Equal(t, StrategyBalanced, s)

	_, err = ParseStrategy("YOLO")
	assert.Error(t, err)
}

func TestGenerateSchedule(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		frequency string
		expected  Frequency
		days      int
		next      time.Time
	}{
		{"MONTHLY", FrequencyMonthly, 30, time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC)},
		{"quarterly", FrequencyQuarterly, 90, time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)},
		{"SEMIANNUALLY", FrequencySemiannually, 180, now.AddDate(0, 0, 180)},
		{"ANNUALLY", FrequencyAnnually, 365, time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)},
		{"WEEKLY", FrequencyQuarterly, 90, time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.frequency, func(t *testing.T) {
			s := GenerateSchedule(tt.frequency, now)
			assert.Equal(t, tt.expected, s.Frequency)
			assert.Equal(t, tt.days, s.DaysInterval)
			assert.True(t, tt.next.Equal(s.NextRebalanceDate))
			assert.NotEmpty(t, s.Description)
		})
	}
}

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency("annually")
	require.NoError(t, err)
	assert.Equal(t, FrequencyAnnually, f)

	_, err = ParseFrequency("WEEKLY")
	assert.Error(t, err)
}

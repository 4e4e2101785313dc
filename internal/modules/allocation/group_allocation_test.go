package allocation

import (
	"testing"

	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/modules/rebalancing"
	testutil "github.com/folioworks/folio/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMultiGroupMapping(t *testing.T) {
	tests := []struct {
		name     string
		groups   map[string][]string
		expected map[string][]string
	}{
		{
			name: "single group per item",
			groups: map[string][]string{
				"Tech":   {"Technology", "Software"},
				"Health": {"Healthcare", "Pharma"},
			},
			expected: map[string][]string{
				"Technology": {"Tech"},
				"Software":   {"Tech"},
				"Healthcare": {"Health"},
				"Pharma":     {"Health"},
			},
		},
		{
			name: "item in multiple groups",
			groups: map[string][]string{
				"Tech":   {"Technology", "Software"},
				"Growth": {"Technology", "Healthcare"},
			},
			expected: map[string][]string{
				"Technology": {"Tech", "Growth"},
				"Software":   {"Tech"},
				"Healthcare": {"Growth"},
			},
		},
		{
			name:     "empty groups",
			groups:   map[string][]string{},
			expected: map[string][]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := buildMultiGroupMapping(tt.groups)

			// Check all expected items are present with correct groups
			for item, expectedGroups := range tt.expected {
				assert.Contains(t, result, item, "result should contain item %s", item)
				assert.ElementsMatch(t, expectedGroups, result[item],
					"item %s should have groups %v, got %v", item, expectedGroups, result[item])
			}

			// Check no unexpected items
			assert.Equal(t, len(tt.expected), len(result),
				"result should have same number of items as expected")
		})
	}
}

func TestAggregateByGroupMulti(t *testing.T) {
	values := map[string]float64{
		"Technology": 4000,
		"Healthcare": 3000,
		"Finance":    3000,
		"Energy":     500,
	}
	itemToGroups := map[string][]string{
		"Technology": {"Tech", "Growth"},
		"Finance":    {"Growth"},
		"Healthcare": {"Health"},
	}

	result := aggregateByGroupMulti(values, itemToGroups)

	// Technology is split 50/50 between Tech and Growth
	assert.Equal(t, 2000.0, result["Tech"])
	assert.Equal(t, 5000.0, result["Growth"])
	assert.Equal(t, 3000.0, result["Health"])
	assert.Equal(t, 500.0, result[UnassignedGroup], "ungrouped items fall into OTHER")
	assert.Len(t, result, 4)
}

func TestCalculateTypeAllocation(t *testing.T) {
	snapshot := testutil.NewSnapshotFixture()
	snapshot.TargetAllocation = rebalancing.GenerateTargetAllocation("BALANCED")

	allocs := CalculateTypeAllocation(snapshot)

	require.Len(t, allocs, 4)
	names := []string{allocs[0].Name, allocs[1].Name, allocs[2].Name, allocs[3].Name}
	assert.Equal(t, []string{"STOCK", "BOND", "GOLD", "CASH"}, names)

	assert.Equal(t, 6000.0, allocs[0].CurrentValue)
	assert.Equal(t, 60.0, allocs[0].CurrentPct)
	assert.Equal(t, 50.0, allocs[0].TargetPct)
	assert.Equal(t, 10.0, allocs[0].Deviation)

	assert.Equal(t, 30.0, allocs[1].CurrentPct)
	assert.Equal(t, -10.0, allocs[1].Deviation)
}

func TestCalculateTypeAllocation_TargetOnlyType(t *testing.T) {
	snapshot := domain.Snapshot{
		Holdings:         []domain.Holding{testutil.NewHolding("VTI", domain.AssetTypeStock, 1, 100, 100)},
		TargetAllocation: map[domain.AssetType]float64{domain.AssetTypeStock: 70, domain.AssetTypeBond: 30},
	}

	allocs := CalculateTypeAllocation(snapshot)

	require.Len(t, allocs, 2)
	assert.Equal(t, "BOND", allocs[1].Name)
	assert.Equal(t, 0.0, allocs[1].CurrentValue)
	assert.Equal(t, -30.0, allocs[1].Deviation)
}

func TestCalculateTypeAllocation_Empty(t *testing.T) {
	allocs := CalculateTypeAllocation(domain.Snapshot{})

	assert.NotNil(t, allocs)
	assert.Empty(t, allocs)
}

func withSector(h domain.Holding, sector string) domain.Holding {
	h.Details = &domain.Details{Stock: &domain.StockDetails{Sector: sector}}
	return h
}

func sectorSnapshot() domain.Snapshot {
	return domain.Snapshot{Holdings: []domain.Holding{
		withSector(testutil.NewHolding("AAPL", domain.AssetTypeStock, 10, 100, 400), "Technology"),
		withSector(testutil.NewHolding("JPM", domain.AssetTypeStock, 10, 100, 300), "Finance"),
		withSector(testutil.NewHolding("JNJ", domain.AssetTypeStock, 10, 100, 300), "Healthcare"),
		testutil.NewHolding("VTI", domain.AssetTypeStock, 10, 100, 100),
		testutil.NewHolding("BND", domain.AssetTypeBond, 10, 100, 900),
	}}
}

func TestCalculateSectorAllocation_NoGroups(t *testing.T) {
	allocs := CalculateSectorAllocation(sectorSnapshot(), nil)

	require.Len(t, allocs, 4)
	byName := make(map[string]GroupAllocation)
	for _, a := range allocs {
		byName[a.Name] = a
	}

	assert.Equal(t, 4000.0, byName["Technology"].CurrentValue)
	// relative to the whole 20000 portfolio, bonds included
	assert.Equal(t, 20.0, byName["Technology"].CurrentPct)
	assert.Equal(t, 1000.0, byName[UnassignedGroup].CurrentValue)
	assert.Equal(t, "Finance", allocs[0].Name, "sorted by name")
}

func TestCalculateSectorAllocation_WithMultiGroup(t *testing.T) {
	groups := map[string][]string{
		"Tech":   {"Technology"},
		"Growth": {"Technology", "Finance"},
		"Health": {"Healthcare"},
	}

	allocs := CalculateSectorAllocation(sectorSnapshot(), groups)

	byName := make(map[string]GroupAllocation)
	for _, a := range allocs {
		byName[a.Name] = a
	}

	assert.Equal(t, 2000.0, byName["Tech"].CurrentValue)
	assert.Equal(t, 5000.0, byName["Growth"].CurrentValue)
	assert.Equal(t, 3000.0, byName["Health"].CurrentValue)
	assert.Equal(t, 1000.0, byName[UnassignedGroup].CurrentValue)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 33.33, round(100.0/3, 2))
	assert.Equal(t, 0.0, round(0, 2))
}

package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/folioworks/folio/internal/domain"
	testutil "github.com/folioworks/folio/internal/testing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db := testutil.NewTestDB(t)
	return NewRepository(db.Conn(), zerolog.Nop())
}

func TestRepository_CreateAndGetPortfolio(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	target := map[domain.AssetType]float64{domain.AssetTypeStock: 60, domain.AssetTypeBond: 40}
	created, err := repo.CreatePortfolio(ctx, "alice", "Retirement", target)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := repo.GetPortfolio(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, "Retirement", got.Name)
	assert.Equal(t, target, got.TargetAllocation)
	assert.NotNil(t, got.Holdings)
	assert.Empty(t, got.Holdings)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)
}

func TestRepository_GetPortfolio_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetPortfolio(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_HoldingsRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	p, err := repo.CreatePortfolio(ctx, "", "Main", nil)
	require.NoError(t, err)

	bought := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	stock := testutil.NewHolding("VTI", domain.AssetTypeStock, 10.5, 150, 200)
	stock.Name = "Vanguard Total Stock Market"
	stock.PurchaseDate = &bought
	stock.Details = &domain.Details{Stock: &domain.StockDetails{Sector: "Technology", Beta: 1.1}}

	added, err := repo.AddHolding(ctx, p.ID, stock)
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)

	_, err = repo.AddHolding(ctx, p.ID, testutil.NewHolding("BND", domain.AssetTypeBond, 40, 80, 75))
	require.NoError(t, err)

	got, err := repo.GetPortfolio(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Holdings, 2)

	h := got.Holdings[0]
	assert.Equal(t, added.ID, h.ID)
	assert.Equal(t, "VTI", h.Symbol)
	assert.Equal(t, "Vanguard Total Stock Market", h.Name)
	assert.True(t, decimal.RequireFromString("10.5").Equal(h.Quantity))
	assert.True(t, decimal.NewFromInt(150).Equal(h.PurchasePrice))
	assert.True(t, decimal.NewFromInt(200).Equal(h.CurrentPrice))
	require.NotNil(t, h.PurchaseDate)
	assert.True(t, bought.Equal(*h.PurchaseDate))
	require.NotNil(t, h.Details)
	require.NotNil(t, h.Details.Stock)
	assert.Equal(t, "Technology", h.Details.Stock.Sector)
	assert.Equal(t, 1.1, h.Details.Stock.Beta)

	assert.Equal(t, "BND", got.Holdings[1].Symbol)
	assert.Nil(t, got.Holdings[1].Details)
	assert.Nil(t, got.Holdings[1].PurchaseDate)
}

func TestRepository_AddHolding_UnknownPortfolio(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.AddHolding(context.Background(), "missing", testutil.NewHolding("VTI", domain.AssetTypeStock, 1, 1, 1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_RemoveHolding(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	p, err := repo.CreatePortfolio(ctx, "", "Main", nil)
	require.NoError(t, err)
	h, err := repo.AddHolding(ctx, p.ID, testutil.NewHolding("VTI", domain.AssetTypeStock, 1, 100, 100))
	require.NoError(t, err)

	require.NoError(t, repo.RemoveHolding(ctx, p.ID, h.ID))
	assert.ErrorIs(t, repo.RemoveHolding(ctx, p.ID, h.ID), domain.ErrNotFound)

	got, err := repo.GetPortfolio(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Holdings)
}

func TestRepository_ListPortfolios(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.CreatePortfolio(ctx, "alice", "A", nil)
	require.NoError(t, err)
	_, err = repo.CreatePortfolio(ctx, "bob", "B", nil)
	require.NoError(t, err)

	all, err := repo.ListPortfolios(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	alice, err := repo.ListPortfolios(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alice, 1)
	assert.Equal(t, "A", alice[0].Name)

	none, err := repo.ListPortfolios(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	ids, err := repo.ListPortfolioIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestRepository_DeletePortfolio_Cascades(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	p, err := repo.CreatePortfolio(ctx, "", "Main", nil)
	require.NoError(t, err)
	_, err = repo.AddHolding(ctx, p.ID, testutil.NewHolding("VTI", domain.AssetTypeStock, 1, 100, 100))
	require.NoError(t, err)
	require.NoError(t, repo.RecordValue(ctx, p.ID, time.Now(), 100))

	require.NoError(t, repo.DeletePortfolio(ctx, p.ID))
	assert.ErrorIs(t, repo.DeletePortfolio(ctx, p.ID), domain.ErrNotFound)

	symbols, err := repo.ListQuotedSymbols(ctx)
	require.NoError(t, err)
	assert.Empty(t, symbols)

	history, err := repo.GetValueHistory(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRepository_SetTargetAllocation(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	p, err := repo.CreatePortfolio(ctx, "", "Main", nil)
	require.NoError(t, err)

	target := map[domain.AssetType]float64{domain.AssetTypeGold: 100}
	require.NoError(t, repo.SetTargetAllocation(ctx, p.ID, target))
	got, err := repo.GetPortfolio(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, target, got.TargetAllocation)

	require.NoError(t, repo.SetTargetAllocation(ctx, p.ID, nil))
	got, err = repo.GetPortfolio(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TargetAllocation)

	assert.ErrorIs(t, repo.SetTargetAllocation(ctx, "missing", target), domain.ErrNotFound)
}

func TestRepository_UpdatePrice(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	a, err := repo.CreatePortfolio(ctx, "", "A", nil)
	require.NoError(t, err)
	b, err := repo.CreatePortfolio(ctx, "", "B", nil)
	require.NoError(t, err)
	for _, id := range []string{a.ID, b.ID} {
		_, err = repo.AddHolding(ctx, id, testutil.NewHolding("VTI", domain.AssetTypeStock, 1, 100, 100))
		require.NoError(t, err)
	}
	_, err = repo.AddHolding(ctx, a.ID, testutil.NewHolding("USD", domain.AssetTypeCash, 50, 1, 1))
	require.NoError(t, err)

	symbols, err := repo.ListQuotedSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"VTI"}, symbols)

	ids, err := repo.UpdatePrice(ctx, "vti", decimal.NewFromInt(120))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	got, err := repo.GetPortfolio(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(120).Equal(got.Holdings[0].CurrentPrice))
	assert.True(t, decimal.NewFromInt(100).Equal(got.Holdings[0].PurchasePrice))

	ids, err = repo.UpdatePrice(ctx, "NOPE", decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRepository_ValueHistory(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	p, err := repo.CreatePortfolio(ctx, "", "Main", nil)
	require.NoError(t, err)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range []float64{100, 110, 105, 120} {
		require.NoError(t, repo.RecordValue(ctx, p.ID, start.AddDate(0, 0, i), v))
	}
	// same timestamp overwrites
	require.NoError(t, repo.RecordValue(ctx, p.ID, start.AddDate(0, 0, 3), 125))

	all, err := repo.GetValueHistory(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, 100.0, all[0].TotalValue)
	assert.Equal(t, 125.0, all[3].TotalValue)
	assert.True(t, start.Equal(all[0].RecordedAt))

	last, err := repo.GetValueHistory(ctx, p.ID, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, 105.0, last[0].TotalValue)
	assert.Equal(t, 125.0, last[1].TotalValue)
}

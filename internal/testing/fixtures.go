package testing

import (
	"github.com/folioworks/folio/internal/domain"
	"github.com/shopspring/decimal"
)

// NewHolding builds a holding from float figures without validation
func NewHolding(symbol string, assetType domain.AssetType, qty, purchasePrice, currentPrice float64) domain.Holding {
	return domain.Holding{
		Symbol:        symbol,
		AssetType:     assetType,
		Quantity:      decimal.NewFromFloat(qty),
		PurchasePrice: decimal.NewFromFloat(purchasePrice),
		CurrentPrice:  decimal.NewFromFloat(currentPrice),
	}
}

// NewSnapshotFixture returns a four-asset-type snapshot worth 10000:
// STOCK 6000 (cost 5000), BOND 3000 (cost 3200), GOLD 800 (cost 600), CASH 200.
func NewSnapshotFixture() domain.Snapshot {
	return domain.Snapshot{
		Holdings: []domain.Holding{
			NewHolding("VTI", domain.AssetTypeStock, 20, 150, 200),
			NewHolding("VXUS", domain.AssetTypeStock, 40, 50, 50),
			NewHolding("BND", domain.AssetTypeBond, 40, 80, 75),
			NewHolding("GLD", domain.AssetTypeGold, 4, 150, 200),
			NewHolding("USD", domain.AssetTypeCash, 200, 1, 1),
		},
	}
}

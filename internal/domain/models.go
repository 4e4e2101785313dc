// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AssetType represents the class of a holding
type AssetType string

const (
	AssetTypeStock AssetType = "STOCK"
	AssetTypeBond  AssetType = "BOND"
	AssetTypeGold  AssetType = "GOLD"
	AssetTypeCash  AssetType = "CASH"
)

// AssetTypes lists the supported asset types in canonical order.
// Every per-type iteration in reports follows this order.
var AssetTypes = []AssetType{AssetTypeStock, AssetTypeBond, AssetTypeGold, AssetTypeCash}

// ParseAssetType normalizes and validates an asset type name
func ParseAssetType(s string) (AssetType, error) {
	t := AssetType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AssetTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown asset type %q", s)
}

func (t AssetType) rank() int {
	for i, known := range AssetTypes {
		if t == known {
			return i
		}
	}
	return len(AssetTypes)
}

// AssetTypeLess reports whether a sorts before b in canonical order.
// Unknown keys follow the known types alphabetically.
func AssetTypeLess(a, b AssetType) bool {
	ra, rb := a.rank(), b.rank()
	if ra != rb {
		return ra < rb
	}
	return a < b
}

// SortAssetTypes orders types canonically
func SortAssetTypes(types []AssetType) {
	sort.SliceStable(types, func(i, j int) bool {
		return AssetTypeLess(types[i], types[j])
	})
}

// Holding is a position in a single instrument.
// Quantity and PurchasePrice are fixed at creation; only CurrentPrice is refreshed.
type Holding struct {
	ID            string          `json:"id,omitempty"`
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name,omitempty"`
	AssetType     AssetType       `json:"assetType"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
	PurchaseDate  *time.Time      `json:"purchaseDate,omitempty"`
	Details       *Details        `json:"details,omitempty"`
}

// NewHolding validates inputs and returns a holding.
// A zero current price falls back to the purchase price.
func NewHolding(symbol string, assetType AssetType, quantity, purchasePrice, currentPrice decimal.Decimal) (Holding, error) {
	h := Holding{
		Symbol:        strings.ToUpper(strings.TrimSpace(symbol)),
		AssetType:     assetType,
		Quantity:      quantity,
		PurchasePrice: purchasePrice,
		CurrentPrice:  currentPrice,
	}
	if h.CurrentPrice.IsZero() {
		h.CurrentPrice = purchasePrice
	}
	if err := h.Validate(); err != nil {
		return Holding{}, err
	}
	return h, nil
}

// Validate checks the holding invariants
func (h Holding) Validate() error {
	if h.Symbol == "" {
		return fmt.Errorf("holding symbol is required")
	}
	if _, err := ParseAssetType(string(h.AssetType)); err != nil {
		return fmt.Errorf("holding %s: %w", h.Symbol, err)
	}
	if h.Quantity.IsNegative() {
		return fmt.Errorf("holding %s: quantity must not be negative", h.Symbol)
	}
	if !h.PurchasePrice.IsPositive() {
		return fmt.Errorf("holding %s: purchase price must be positive", h.Symbol)
	}
	if h.CurrentPrice.IsNegative() {
		return fmt.Errorf("holding %s: current price must not be negative", h.Symbol)
	}
	if h.Details != nil {
		if err := h.Details.validateFor(h.AssetType); err != nil {
			return fmt.Errorf("holding %s: %w", h.Symbol, err)
		}
	}
	return nil
}

// Price returns the current price, or the purchase price when no quote is known
func (h Holding) Price() decimal.Decimal {
	if h.CurrentPrice.IsZero() {
		return h.PurchasePrice
	}
	return h.CurrentPrice
}

// WithPrice returns a copy carrying a refreshed current price
func (h Holding) WithPrice(price decimal.Decimal) Holding {
	h.CurrentPrice = price
	return h
}

// CostBasis = PurchasePrice × Quantity
func (h Holding) CostBasis() decimal.Decimal {
	return h.PurchasePrice.Mul(h.Quantity)
}

// MarketValue = Price × Quantity
func (h Holding) MarketValue() decimal.Decimal {
	return h.Price().Mul(h.Quantity)
}

// Gain = MarketValue - CostBasis
func (h Holding) Gain() decimal.Decimal {
	return h.MarketValue().Sub(h.CostBasis())
}

// GainPct returns the unrealized gain as a percentage of cost basis (0 when cost basis is 0)
func (h Holding) GainPct() float64 {
	return Percent(h.Gain().InexactFloat64(), h.CostBasis().InexactFloat64())
}

// Valuation is the float view of a holding used by the analytics
type Valuation struct {
	Cost    float64
	Value   float64
	Gain    float64
	GainPct float64
}

// Valuation converts the decimal figures for computation
func (h Holding) Valuation() Valuation {
	cost := h.CostBasis().InexactFloat64()
	value := h.MarketValue().InexactFloat64()
	return Valuation{
		Cost:    cost,
		Value:   value,
		Gain:    value - cost,
		GainPct: Percent(value-cost, cost),
	}
}

// Percent returns part/total×100, or 0 when total is 0
func Percent(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

package domain

import (
	"fmt"
	"time"
)

// StockDetails carries equity-specific attributes
type StockDetails struct {
	Sector        string  `json:"sector,omitempty" msgpack:"sector"`
	MarketCap     string  `json:"marketCap,omitempty" msgpack:"market_cap"` // LARGE, MID, SMALL
	DividendYield float64 `json:"dividendYield,omitempty" msgpack:"dividend_yield"`
	Beta          float64 `json:"beta,omitempty" msgpack:"beta"`
	PERatio       float64 `json:"peRatio,omitempty" msgpack:"pe_ratio"`
}

// BondDetails carries fixed-income attributes
type BondDetails struct {
	MaturityDate *time.Time `json:"maturityDate,omitempty" msgpack:"maturity_date"`
	CouponRate   float64    `json:"couponRate,omitempty" msgpack:"coupon_rate"`
	FaceValue    float64    `json:"faceValue,omitempty" msgpack:"face_value"`
	CreditRating string     `json:"creditRating,omitempty" msgpack:"credit_rating"`
	BondType     string     `json:"bondType,omitempty" msgpack:"bond_type"` // GOVERNMENT, CORPORATE, MUNICIPAL
}

// GoldDetails carries bullion attributes
type GoldDetails struct {
	Purity          float64 `json:"purity,omitempty" msgpack:"purity"`
	WeightGrams     float64 `json:"weightGrams,omitempty" msgpack:"weight_grams"`
	GoldType        string  `json:"goldType,omitempty" msgpack:"gold_type"` // PHYSICAL, ETF, DIGITAL
	StorageLocation string  `json:"storageLocation,omitempty" msgpack:"storage_location"`
}

// Details is the type-specific payload of a holding.
// At most one member is set and it must match the holding's asset type.
type Details struct {
	Stock *StockDetails `json:"stock,omitempty" msgpack:"stock,omitempty"`
	Bond  *BondDetails  `json:"bond,omitempty" msgpack:"bond,omitempty"`
	Gold  *GoldDetails  `json:"gold,omitempty" msgpack:"gold,omitempty"`
}

// Kind reports which asset type the payload belongs to ("" when empty)
func (d *Details) Kind() AssetType {
	if d == nil {
		return ""
	}
	switch {
	case d.Stock != nil:
		return AssetTypeStock
	case d.Bond != nil:
		return AssetTypeBond
	case d.Gold != nil:
		return AssetTypeGold
	}
	return ""
}

func (d *Details) validateFor(t AssetType) error {
	set := 0
	for _, present := range []bool{d.Stock != nil, d.Bond != nil, d.Gold != nil} {
		if present {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("details must carry a single payload")
	}
	if kind := d.Kind(); kind != "" && kind != t {
		return fmt.Errorf("%s details on a %s holding", kind, t)
	}
	return nil
}

// YearsToMaturity returns the remaining years until maturity, or 0 when unknown or past.
func (b *BondDetails) YearsToMaturity(now time.Time) float64 {
	if b == nil || b.MaturityDate == nil {
		return 0
	}
	years := b.MaturityDate.Sub(now).Hours() / 24 / 365
	if years < 0 {
		return 0
	}
	return years
}

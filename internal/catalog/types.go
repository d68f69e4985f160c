package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/kanak-erp/kanak/internal/pricing"
)

// Setting keys holding GST defaults.
const (
	SettingBuyGST  = "BUY_GST"
	SettingSellGST = "SELL_GST"
)

var fallbackGST = map[string]decimal.Decimal{
	SettingBuyGST:  decimal.Zero,
	SettingSellGST: decimal.NewFromInt(3),
}

// Category is a metal/purity combination with its default margins.
type Category struct {
	ID                        string             `json:"id"`
	MetalType                 string             `json:"metalType"`
	Karat                     string             `json:"karat"`
	PurityPercentage          pricing.FlexNumber `json:"purityPercentage"`
	ProfitPercentage          pricing.FlexNumber `json:"profitPercentage"`
	ThresholdProfitPercentage pricing.FlexNumber `json:"thresholdProfitPercentage"`
}

// Label is a short display name such as "Gold 22K".
func (c Category) Label() string {
	switch {
	case c.MetalType == "":
		return c.Karat
	case c.Karat == "":
		return c.MetalType
	default:
		return c.MetalType + " " + c.Karat
	}
}

// MetalPrice is a rate per unit weight for one purity.
type MetalPrice struct {
	PurityID string             `json:"purityId"`
	Price    pricing.FlexNumber `json:"price"`
	Active   bool               `json:"active"`
}

// Setting is one keyed configuration entry of the back office.
type Setting struct {
	Key    string             `json:"key"`
	Value  pricing.FlexNumber `json:"value"`
	Active bool               `json:"active"`
}

// Snapshot bundles every lookup a pricing form needs.
type Snapshot struct {
	Categories  []Category   `json:"categories"`
	MetalPrices []MetalPrice `json:"metalPrices"`
	Settings    []Setting    `json:"settings"`
}

// FindCategory returns the category with id.
func (s Snapshot) FindCategory(id string) (Category, bool) {
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// ActiveRate returns the price of the active entry for purityID.
func (s Snapshot) ActiveRate(purityID string) (decimal.Decimal, bool) {
	for _, p := range s.MetalPrices {
		if p.Active && p.PurityID == purityID {
			return p.Price.Decimal, true
		}
	}
	return decimal.Zero, false
}

// GST returns the active value for key or the fallback for that key.
func (s Snapshot) GST(key string) decimal.Decimal {
	for _, st := range s.Settings {
		if st.Active && st.Key == key {
			return st.Value.Decimal
		}
	}
	return FallbackGST(key)
}

// FallbackGST is the percentage used when a GST setting is absent or inactive.
func FallbackGST(key string) decimal.Decimal {
	if v, ok := fallbackGST[key]; ok {
		return v
	}
	return decimal.Zero
}

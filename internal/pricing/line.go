package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// LineItem is the in-progress pricing row of an item builder form. Only user
// inputs live here; every derived value comes out of Snapshot.
type LineItem struct {
	PurityID                  string           `json:"purity_id,omitempty"`
	Label                     string           `json:"label,omitempty"`
	GrossWeight               decimal.Decimal  `json:"gross_weight"`
	NetWeight                 decimal.Decimal  `json:"net_weight"`
	Rate                      decimal.Decimal  `json:"rate"`
	Wastage                   ChargePolicy     `json:"wastage"`
	OtherCharges              Pair             `json:"other_charges"`
	Making                    ChargePolicy     `json:"making"`
	GSTPercentage             decimal.Decimal  `json:"gst_percentage"`
	TaxPercentage             decimal.Decimal  `json:"tax_percentage"`
	ProfitPercentage          decimal.Decimal  `json:"profit_percentage"`
	ThresholdProfitPercentage decimal.Decimal  `json:"threshold_profit_percentage"`
	SellingPriceOverride      *decimal.Decimal `json:"selling_price_override,omitempty"`
}

// NewLineItem returns an empty row using FLAT policies for both charges.
func NewLineItem() LineItem {
	return LineItem{
		Wastage: Flat(decimal.Zero),
		Making:  Flat(decimal.Zero),
	}
}

// BasePrice is netWeight × rate.
func (l *LineItem) BasePrice() decimal.Decimal {
	return l.NetWeight.Mul(l.Rate)
}

// rebase keeps other charges consistent with the current base price.
func (l *LineItem) rebase() {
	l.OtherCharges = l.OtherCharges.Rebase(l.BasePrice())
}

// SetPurity records the purity (category) the line is priced at.
func (l *LineItem) SetPurity(id string) {
	l.PurityID = id
}

// SetLabel sets the display name of the item.
func (l *LineItem) SetLabel(label string) {
	l.Label = label
}

// SetGrossWeight records the weight including stones; it does not affect price.
func (l *LineItem) SetGrossWeight(v decimal.Decimal) {
	l.GrossWeight = v
}

// SetNetWeight sets the metal weight and rebases other charges.
func (l *LineItem) SetNetWeight(v decimal.Decimal) {
	l.NetWeight = v
	l.rebase()
}

// SetRate sets the metal rate per gram and rebases other charges.
func (l *LineItem) SetRate(v decimal.Decimal) {
	l.Rate = v
	l.rebase()
}

// SetWastage replaces the wastage charge policy.
func (l *LineItem) SetWastage(p ChargePolicy) {
	l.Wastage = p
}

// SetMaking replaces the making charge policy.
func (l *LineItem) SetMaking(p ChargePolicy) {
	l.Making = p
}

// SetOtherChargesAmount edits the rupee side; the percentage follows.
func (l *LineItem) SetOtherChargesAmount(v decimal.Decimal) {
	l.OtherCharges = l.OtherCharges.WithAmount(v, l.BasePrice())
}

// SetOtherChargesPercentage edits the percentage side; the amount follows.
func (l *LineItem) SetOtherChargesPercentage(v decimal.Decimal) {
	l.OtherCharges = l.OtherCharges.WithPercentage(v, l.BasePrice())
}

// SetGSTPercentage sets the GST added to metal, wastage and other charges.
func (l *LineItem) SetGSTPercentage(v decimal.Decimal) {
	l.GSTPercentage = v
}

// SetTaxPercentage sets the tax applied to the selling price.
func (l *LineItem) SetTaxPercentage(v decimal.Decimal) {
	l.TaxPercentage = v
}

// SetProfitPercentage makes the selling price derived again.
func (l *LineItem) SetProfitPercentage(v decimal.Decimal) {
	l.ProfitPercentage = v
	l.SellingPriceOverride = nil
}

// SetThresholdProfitPercentage sets the margin below which a line is flagged.
func (l *LineItem) SetThresholdProfitPercentage(v decimal.Decimal) {
	l.ThresholdProfitPercentage = v
}

// SetSellingPrice pins the selling price; the profit percentage is then
// back-computed from it on every snapshot.
func (l *LineItem) SetSellingPrice(v decimal.Decimal) {
	l.SellingPriceOverride = &v
}

// ClearSellingPrice drops a manual selling price.
func (l *LineItem) ClearSellingPrice() {
	l.SellingPriceOverride = nil
}

// StoneWeight is gross − net, never negative.
func (l *LineItem) StoneWeight() decimal.Decimal {
	stone := l.GrossWeight.Sub(l.NetWeight)
	if stone.IsNegative() {
		return decimal.Zero
	}
	return stone
}

// LineSnapshot is the complete derived state of a LineItem.
type LineSnapshot struct {
	PurityID               string          `json:"purity_id,omitempty"`
	Label                  string          `json:"label,omitempty"`
	GrossWeight            decimal.Decimal `json:"gross_weight"`
	NetWeight              decimal.Decimal `json:"net_weight"`
	StoneWeight            decimal.Decimal `json:"stone_weight"`
	Rate                   decimal.Decimal `json:"rate"`
	Wastage                ChargePolicy    `json:"wastage"`
	OtherChargesAmount     decimal.Decimal `json:"other_charges_amount"`
	OtherChargesPercentage decimal.Decimal `json:"other_charges_percentage"`
	Making                 ChargePolicy    `json:"making"`
	Breakdown
	GSTPercentage             decimal.Decimal `json:"gst_percentage"`
	ProfitPercentage          decimal.Decimal `json:"profit_percentage"`
	ThresholdProfitPercentage decimal.Decimal `json:"threshold_profit_percentage"`
	SellingPriceOverridden    bool            `json:"selling_price_overridden"`
	TaxPercentage             decimal.Decimal `json:"tax_percentage"`
	TaxAmount                 decimal.Decimal `json:"tax_amount"`
	Advisories                []Advisory      `json:"advisories"`
	CanCommit                 bool            `json:"can_commit"`
}

// Snapshot recomputes every derived field from the current inputs.
func (l LineItem) Snapshot() LineSnapshot {
	base := l.NetWeight.Mul(l.Rate)
	other := l.OtherCharges.Rebase(base)

	b := Derive(Inputs{
		NetWeight:                 l.NetWeight,
		Rate:                      l.Rate,
		Wastage:                   l.Wastage,
		OtherCharges:              other.Amount,
		GSTPercentage:             l.GSTPercentage,
		Making:                    l.Making,
		ProfitPercentage:          l.ProfitPercentage,
		ThresholdProfitPercentage: l.ThresholdProfitPercentage,
	})

	profit := l.ProfitPercentage
	if l.SellingPriceOverride != nil {
		b.SellingPrice = *l.SellingPriceOverride
		profit = ProfitPercentageFor(b.SellingPrice, b.PurchasePrice.Add(b.MakingCharges))
	}

	snap := LineSnapshot{
		PurityID:                  l.PurityID,
		Label:                     l.Label,
		GrossWeight:               l.GrossWeight,
		NetWeight:                 l.NetWeight,
		StoneWeight:               l.StoneWeight(),
		Rate:                      l.Rate,
		Wastage:                   l.Wastage,
		OtherChargesAmount:        other.Amount,
		OtherChargesPercentage:    other.Percentage,
		Making:                    l.Making,
		Breakdown:                 b,
		GSTPercentage:             l.GSTPercentage,
		ProfitPercentage:          profit,
		ThresholdProfitPercentage: l.ThresholdProfitPercentage,
		SellingPriceOverridden:    l.SellingPriceOverride != nil,
		TaxPercentage:             l.TaxPercentage,
		TaxAmount:                 PercentOf(b.SellingPrice, l.TaxPercentage),
		Advisories:                []Advisory{},
	}

	if l.NetWeight.GreaterThan(l.GrossWeight) {
		snap.Advisories = append(snap.Advisories, Advisory{
			Code:    AdvisoryNetExceedsGross,
			Field:   "net_weight",
			Message: fmt.Sprintf("net weight %s exceeds gross weight %s", l.NetWeight, l.GrossWeight),
		})
	}
	if !MeetsProfitThreshold(b.PurchasePrice, b.SellingPrice, l.ThresholdProfitPercentage) {
		snap.Advisories = append(snap.Advisories, Advisory{
			Code:  AdvisoryBelowProfitThreshold,
			Field: "selling_price",
			Message: fmt.Sprintf("selling price %s is below the minimum %s for a %s%% profit threshold",
				b.SellingPrice.StringFixed(2), b.MinimumSellingPrice.StringFixed(2), l.ThresholdProfitPercentage),
		})
	}
	snap.CanCommit = len(snap.Advisories) == 0 && l.NetWeight.IsPositive()
	return snap
}

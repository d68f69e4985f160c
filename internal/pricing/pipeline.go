package pricing

import "github.com/shopspring/decimal"

// Inputs feeds one run of the derivation pipeline.
type Inputs struct {
	NetWeight                 decimal.Decimal
	Rate                      decimal.Decimal
	Wastage                   ChargePolicy
	OtherCharges              decimal.Decimal
	GSTPercentage             decimal.Decimal
	Making                    ChargePolicy
	ProfitPercentage          decimal.Decimal
	ThresholdProfitPercentage decimal.Decimal
}

// Breakdown is the full derived output for a set of Inputs.
type Breakdown struct {
	BasePrice           decimal.Decimal `json:"base_price"`
	WastageCharges      decimal.Decimal `json:"wastage_charges"`
	TaxableAmount       decimal.Decimal `json:"taxable_amount"`
	GSTAmount           decimal.Decimal `json:"gst_amount"`
	PurchasePrice       decimal.Decimal `json:"purchase_price"`
	MakingCharges       decimal.Decimal `json:"making_charges"`
	SellingPrice        decimal.Decimal `json:"selling_price"`
	MinimumSellingPrice decimal.Decimal `json:"minimum_selling_price"`
}

// Derive runs the whole pipeline. Callers re-run it on every input change
// instead of patching individual outputs.
func Derive(in Inputs) Breakdown {
	base := in.NetWeight.Mul(in.Rate)
	wastage := ComputeCharge(in.Wastage, in.NetWeight, in.Rate)
	taxable := base.Add(wastage).Add(in.OtherCharges)
	gst := PercentOf(taxable, in.GSTPercentage)
	purchase := taxable.Add(gst)
	making := ComputeCharge(in.Making, in.NetWeight, in.Rate)
	selling := purchase.Add(making).Add(PercentOf(purchase.Add(making), in.ProfitPercentage))

	return Breakdown{
		BasePrice:           base,
		WastageCharges:      wastage,
		TaxableAmount:       taxable,
		GSTAmount:           gst,
		PurchasePrice:       purchase,
		MakingCharges:       making,
		SellingPrice:        selling,
		MinimumSellingPrice: MinimumSellingPrice(purchase, in.ThresholdProfitPercentage),
	}
}

// MinimumSellingPrice is the lowest price that still clears the threshold.
func MinimumSellingPrice(purchase, thresholdPct decimal.Decimal) decimal.Decimal {
	return purchase.Add(PercentOf(purchase, thresholdPct))
}

// MeetsProfitThreshold reports whether selling clears purchase by at least
// thresholdPct percent.
func MeetsProfitThreshold(purchase, selling, thresholdPct decimal.Decimal) bool {
	return selling.GreaterThanOrEqual(MinimumSellingPrice(purchase, thresholdPct))
}

// ProfitPercentageFor back-computes the markup percentage that turns cost into
// selling. A non-positive cost yields zero.
func ProfitPercentageFor(selling, cost decimal.Decimal) decimal.Decimal {
	if !cost.IsPositive() {
		return decimal.Zero
	}
	return RatioPercent(selling.Sub(cost), cost)
}

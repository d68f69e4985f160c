package pricing

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "expected %s, got %s %v", want, got.String(), msgAndArgs)
}

func TestComputeChargeZeroValue(t *testing.T) {
	for _, kind := range []ChargeKind{ChargeFlat, ChargePercentage, ChargePerWeight} {
		t.Run(string(kind), func(t *testing.T) {
			got := ComputeCharge(ChargePolicy{Kind: kind, Value: decimal.Zero}, d("12.5"), d("6400"))
			assert.True(t, got.IsZero(), "got %s", got)
		})
	}
}

func TestComputeChargeKinds(t *testing.T) {
	cases := []struct {
		name   string
		policy ChargePolicy
		want   string
	}{
		{"flat ignores weight and rate", Flat(d("500")), "500"},
		{"percentage of weight times rate", Percentage(d("10")), "6000"},
		{"per weight", PerWeight(d("350")), "3500"},
		{"unknown kind", ChargePolicy{Kind: "BOGUS", Value: d("10")}, "0"},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, tt.want, ComputeCharge(tt.policy, d("10"), d("6000")))
		})
	}
}

func TestComputeChargePercentageIsLinear(t *testing.T) {
	weights := []string{"0.5", "10", "23.456"}
	values := []string{"0.25", "3", "12.5"}
	for _, w := range weights {
		for _, v := range values {
			single := ComputeCharge(Percentage(d(v)), d(w), d("6123.5"))
			double := ComputeCharge(Percentage(d(v).Mul(decimal.NewFromInt(2))), d(w), d("6123.5"))
			assert.True(t, double.Equal(single.Mul(decimal.NewFromInt(2))), "w=%s v=%s", w, v)
		}
	}
}

func TestParseChargeKind(t *testing.T) {
	assert.Equal(t, ChargePercentage, ParseChargeKind(" percent "))
	assert.Equal(t, ChargePercentage, ParseChargeKind("PERCENTAGE"))
	assert.Equal(t, ChargePerWeight, ParseChargeKind("per-gram"))
	assert.Equal(t, ChargePerWeight, ParseChargeKind("PER_WEIGHT"))
	assert.Equal(t, ChargeFlat, ParseChargeKind("flat"))
	assert.Equal(t, ChargeFlat, ParseChargeKind("whatever"))
	assert.True(t, ChargePerWeight.Valid())
	assert.False(t, ChargeKind("x").Valid())
}

func TestCoerce(t *testing.T) {
	assert.True(t, Coerce(nil).IsZero())
	assert.True(t, Coerce("").IsZero())
	assert.True(t, Coerce("   ").IsZero())
	assert.True(t, Coerce("12abc").IsZero())
	assert.True(t, Coerce(true).IsZero())
	assert.True(t, Coerce(math.NaN()).IsZero())
	assert.True(t, Coerce(math.Inf(1)).IsZero())
	assert.True(t, Coerce(struct{}{}).IsZero())
	assertDecimal(t, "12.5", Coerce(" 12.5 "))
	assertDecimal(t, "3", Coerce(3))
	assertDecimal(t, "1.1", Coerce(1.1))
	assertDecimal(t, "7", Coerce(Num(d("7"))))
}

func TestFlexNumberUnmarshal(t *testing.T) {
	var body struct {
		A FlexNumber `json:"a"`
		B FlexNumber `json:"b"`
		C FlexNumber `json:"c"`
		D FlexNumber `json:"d"`
		E FlexNumber `json:"e"`
	}
	err := json.Unmarshal([]byte(`{"a": 12.5, "b": "7.25", "c": "", "d": "oops", "e": null}`), &body)
	require.NoError(t, err)
	assertDecimal(t, "12.5", body.A.Decimal)
	assertDecimal(t, "7.25", body.B.Decimal)
	assert.True(t, body.C.IsZero())
	assert.True(t, body.D.IsZero())
	assert.True(t, body.E.IsZero())
}

func TestDeriveScenario(t *testing.T) {
	b := Derive(Inputs{
		NetWeight:                 d("10"),
		Rate:                      d("6000"),
		Wastage:                   Flat(d("500")),
		OtherCharges:              d("200"),
		GSTPercentage:             d("3"),
		Making:                    Percentage(d("10")),
		ProfitPercentage:          d("20"),
		ThresholdProfitPercentage: d("10"),
	})

	assertDecimal(t, "60000", b.BasePrice)
	assertDecimal(t, "500", b.WastageCharges)
	assertDecimal(t, "60700", b.TaxableAmount)
	assertDecimal(t, "1821", b.GSTAmount)
	assertDecimal(t, "62521", b.PurchasePrice)
	assertDecimal(t, "6000", b.MakingCharges)
	assertDecimal(t, "82225.2", b.SellingPrice)
	assertDecimal(t, "68773.1", b.MinimumSellingPrice)
	assert.True(t, MeetsProfitThreshold(b.PurchasePrice, b.SellingPrice, d("10")))
}

func TestMeetsProfitThresholdBoundary(t *testing.T) {
	assert.True(t, MeetsProfitThreshold(d("1000"), d("1100"), d("10")))
	assert.False(t, MeetsProfitThreshold(d("1000"), d("1099.99"), d("10")))
	assert.True(t, MeetsProfitThreshold(d("1000"), d("1000"), decimal.Zero))
}

func TestProfitPercentageFor(t *testing.T) {
	assertDecimal(t, "10", ProfitPercentageFor(d("75373.1"), d("68521")))
	assert.True(t, ProfitPercentageFor(d("100"), decimal.Zero).IsZero())
}

func TestReconcileRoundTrip(t *testing.T) {
	bases := []string{"0.01", "7000", "60000", "123456.78"}
	amounts := []string{"0", "1000", "1234.5", "99.99"}
	for _, b := range bases {
		for _, a := range amounts {
			p := Reconcile(FieldAmount, d(a), decimal.Zero, d(b))
			back := Reconcile(FieldPercentage, decimal.Zero, p.Percentage, d(b))
			assert.InDelta(t, d(a).InexactFloat64(), back.Amount.InexactFloat64(), 1e-6, "base=%s amount=%s", b, a)
		}
	}
}

func TestReconcileZeroBase(t *testing.T) {
	for _, a := range []string{"0", "1", "5000"} {
		p := Reconcile(FieldAmount, d(a), d("12"), decimal.Zero)
		assert.True(t, p.Percentage.IsZero())
		assertDecimal(t, a, p.Amount)
	}
	neg := Reconcile(FieldAmount, d("10"), decimal.Zero, d("-5"))
	assert.True(t, neg.Percentage.IsZero())
}

func TestReconcileNoneIsEmpty(t *testing.T) {
	p := Reconcile(FieldNone, d("10"), d("5"), d("100"))
	assert.False(t, p.IsSet())
	assert.True(t, p.Amount.IsZero())
}

func scenarioLine() LineItem {
	line := NewLineItem()
	line.SetGrossWeight(d("10.5"))
	line.SetNetWeight(d("10"))
	line.SetRate(d("6000"))
	line.SetWastage(Flat(d("500")))
	line.SetOtherChargesAmount(d("200"))
	line.SetGSTPercentage(d("3"))
	line.SetMaking(Percentage(d("10")))
	line.SetProfitPercentage(d("20"))
	line.SetThresholdProfitPercentage(d("10"))
	line.SetTaxPercentage(d("3"))
	return line
}

func TestLineSnapshotScenario(t *testing.T) {
	snap := scenarioLine().Snapshot()

	assertDecimal(t, "0.5", snap.StoneWeight)
	assertDecimal(t, "62521", snap.PurchasePrice)
	assertDecimal(t, "82225.2", snap.SellingPrice)
	assertDecimal(t, "200", snap.OtherChargesAmount)
	assert.InDelta(t, 0.333333, snap.OtherChargesPercentage.InexactFloat64(), 1e-6)
	assertDecimal(t, "2466.756", snap.TaxAmount)
	assertDecimal(t, "20", snap.ProfitPercentage)
	assert.False(t, snap.SellingPriceOverridden)
	assert.Empty(t, snap.Advisories)
	assert.True(t, snap.CanCommit)
}

func TestLineOtherChargesFollowBase(t *testing.T) {
	line := scenarioLine()
	line.SetOtherChargesPercentage(d("2"))
	assertDecimal(t, "1200", line.OtherCharges.Amount)

	line.SetRate(d("5000"))
	snap := line.Snapshot()
	assertDecimal(t, "1000", snap.OtherChargesAmount)
	assertDecimal(t, "2", snap.OtherChargesPercentage)

	line.SetOtherChargesAmount(d("600"))
	line.SetNetWeight(d("6"))
	snap = line.Snapshot()
	assertDecimal(t, "600", snap.OtherChargesAmount)
	assertDecimal(t, "2", snap.OtherChargesPercentage)
}

func TestLineSellingPriceOverride(t *testing.T) {
	line := scenarioLine()
	line.SetSellingPrice(d("75373.1"))

	snap := line.Snapshot()
	assert.True(t, snap.SellingPriceOverridden)
	assertDecimal(t, "75373.1", snap.SellingPrice)
	assertDecimal(t, "10", snap.ProfitPercentage)

	line.SetProfitPercentage(d("20"))
	snap = line.Snapshot()
	assert.False(t, snap.SellingPriceOverridden)
	assertDecimal(t, "82225.2", snap.SellingPrice)
}

func TestLineBelowThresholdBlocksCommit(t *testing.T) {
	line := scenarioLine()
	line.SetThresholdProfitPercentage(d("50"))

	snap := line.Snapshot()
	require.Len(t, snap.Advisories, 1)
	assert.Equal(t, AdvisoryBelowProfitThreshold, snap.Advisories[0].Code)
	assert.False(t, snap.CanCommit)
	// advisories never alter computed values
	assertDecimal(t, "82225.2", snap.SellingPrice)
	assertDecimal(t, "93781.5", snap.MinimumSellingPrice)
}

func TestLineNetExceedsGross(t *testing.T) {
	line := scenarioLine()
	line.SetGrossWeight(d("9"))

	snap := line.Snapshot()
	assert.True(t, HasAdvisory(snap.Advisories, AdvisoryNetExceedsGross))
	assert.True(t, snap.StoneWeight.IsZero())
	assert.False(t, snap.CanCommit)
	assertDecimal(t, "62521", snap.PurchasePrice)
}

func TestLineEmptyCannotCommit(t *testing.T) {
	snap := NewLineItem().Snapshot()
	assert.Empty(t, snap.Advisories)
	assert.False(t, snap.CanCommit)
	assert.True(t, snap.SellingPrice.IsZero())
}

func TestApplyEdit(t *testing.T) {
	line := NewLineItem()
	edits := []Edit{
		{Field: "purity_id", Text: "p-22k"},
		{Field: "gross_weight", Value: Num(d("10.5"))},
		{Field: "net_weight", Value: Num(d("10"))},
		{Field: "rate", Value: Num(d("6000"))},
		{Field: "wastage", Value: Num(d("500"))},
		{Field: "other_charges_amount", Value: Num(d("200"))},
		{Field: "gst_percentage", Value: Num(d("3"))},
		{Field: "making", Kind: "percent", Value: Num(d("10"))},
		{Field: "profit_percentage", Value: Num(d("20"))},
	}
	for _, e := range edits {
		require.NoError(t, ApplyEdit(&line, e), e.Field)
	}

	assert.Equal(t, "p-22k", line.PurityID)
	assert.Equal(t, ChargeFlat, line.Wastage.Kind)
	assert.Equal(t, ChargePercentage, line.Making.Kind)
	assertDecimal(t, "82225.2", line.Snapshot().SellingPrice)

	require.NoError(t, ApplyEdit(&line, Edit{Field: "selling_price", Value: Num(d("90000"))}))
	assert.NotNil(t, line.SellingPriceOverride)
	require.NoError(t, ApplyEdit(&line, Edit{Field: "selling_price_reset"}))
	assert.Nil(t, line.SellingPriceOverride)

	err := ApplyEdit(&line, Edit{Field: "colour"})
	require.ErrorIs(t, err, ErrUnknownField)
}

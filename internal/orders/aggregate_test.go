package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanak-erp/kanak/internal/pricing"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "expected %s, got %s %v", want, got.String(), msgAndArgs)
}

func pricedLine(kind Kind, amount, tax string) Line {
	var snap pricing.LineSnapshot
	snap.PurchasePrice = d(amount)
	snap.SellingPrice = d(amount)
	snap.TaxAmount = d(tax)
	return NewLine(kind, snap, "item-"+amount)
}

func TestNewLineCarriesKindSpecificAmounts(t *testing.T) {
	var snap pricing.LineSnapshot
	snap.PurchasePrice = d("62521")
	snap.SellingPrice = d("82225.2")
	snap.TaxAmount = d("2466.756")

	po := NewLine(KindPurchaseOrder, snap, "a")
	assertDecimal(t, "62521", po.Amount)
	assertDecimal(t, "0", po.TaxAmount)

	inv := NewLine(KindSalesInvoice, snap, "b")
	assertDecimal(t, "82225.2", inv.Amount)
	assertDecimal(t, "2466.756", inv.TaxAmount)
}

func TestPaidAmountBackComputesDiscount(t *testing.T) {
	agg := NewAggregate(KindSalesInvoice)
	require.NoError(t, agg.AddLine(pricedLine(KindSalesInvoice, "10000", "0")))
	require.NoError(t, agg.SetPaidAmount(d("9000")))

	totals := agg.Totals()
	assertDecimal(t, "1000", totals.DiscountAmount)
	assertDecimal(t, "10", totals.DiscountPercentage)
	assertDecimal(t, "9000", totals.FinalAmount)
	assert.Equal(t, "paid_amount", totals.DiscountSource)
	assert.Equal(t, StateFinalizing, agg.State)

	require.NoError(t, agg.SetPaidAmount(d("12000")))
	totals = agg.Totals()
	assertDecimal(t, "0", totals.DiscountAmount)
	assertDecimal(t, "10000", totals.FinalAmount)
}

func TestClearPaidAmountFinalizes(t *testing.T) {
	agg := NewAggregate(KindSalesInvoice)
	require.NoError(t, agg.AddLine(pricedLine(KindSalesInvoice, "10000", "0")))
	assert.Equal(t, StateAccumulating, agg.State)

	require.NoError(t, agg.ClearPaidAmount())
	assert.Equal(t, StateFinalizing, agg.State)
	totals := agg.Totals()
	assert.Nil(t, totals.PaidAmount)
	assertDecimal(t, "10000", totals.FinalAmount)

	empty := NewAggregate(KindSalesInvoice)
	require.NoError(t, empty.ClearPaidAmount())
	assert.Equal(t, StateEmpty, empty.State)
}

func TestDiscountAndPaidAmountAreExclusive(t *testing.T) {
	agg := NewAggregate(KindSalesInvoice)
	require.NoError(t, agg.AddLine(pricedLine(KindSalesInvoice, "10000", "0")))

	require.NoError(t, agg.SetDiscountAmount(d("500")))
	require.NoError(t, agg.SetPaidAmount(d("9000")))
	assertDecimal(t, "1000", agg.Totals().DiscountAmount)
	assert.False(t, agg.Discount.IsSet())

	require.NoError(t, agg.SetDiscountAmount(d("200")))
	assert.Nil(t, agg.PaidAmount)
	totals := agg.Totals()
	assertDecimal(t, "200", totals.DiscountAmount)
	assertDecimal(t, "2", totals.DiscountPercentage)
	assert.Nil(t, totals.PaidAmount)
}

func TestDiscountFollowsLastEditedSide(t *testing.T) {
	t.Run("percentage", func(t *testing.T) {
		agg := NewAggregate(KindPurchaseOrder)
		require.NoError(t, agg.AddLine(pricedLine(KindPurchaseOrder, "10000", "0")))
		require.NoError(t, agg.SetDiscountPercentage(d("10")))
		assertDecimal(t, "1000", agg.Totals().DiscountAmount)

		require.NoError(t, agg.AddLine(pricedLine(KindPurchaseOrder, "5000", "0")))
		totals := agg.Totals()
		assertDecimal(t, "1500", totals.DiscountAmount)
		assertDecimal(t, "10", totals.DiscountPercentage)
		assertDecimal(t, "13500", totals.FinalAmount)
	})

	t.Run("amount", func(t *testing.T) {
		agg := NewAggregate(KindPurchaseOrder)
		require.NoError(t, agg.AddLine(pricedLine(KindPurchaseOrder, "10000", "0")))
		require.NoError(t, agg.SetDiscountAmount(d("1000")))
		assertDecimal(t, "10", agg.Totals().DiscountPercentage)

		require.NoError(t, agg.AddLine(pricedLine(KindPurchaseOrder, "10000", "0")))
		totals := agg.Totals()
		assertDecimal(t, "1000", totals.DiscountAmount)
		assertDecimal(t, "5", totals.DiscountPercentage)
	})
}

func TestRemoveLineMatchesFreshRecompute(t *testing.T) {
	agg := NewAggregate(KindPurchaseOrder)
	for _, amount := range []string{"10000", "5000", "2500"} {
		require.NoError(t, agg.AddLine(pricedLine(KindPurchaseOrder, amount, "0")))
	}
	require.NoError(t, agg.SetTaxPercentage(d("3")))
	require.NoError(t, agg.SetDiscountPercentage(d("10")))
	require.NoError(t, agg.SetShippingCharges(d("250")))
	require.NoError(t, agg.RemoveLine(1))

	fresh := NewAggregate(KindPurchaseOrder)
	for _, amount := range []string{"10000", "2500"} {
		require.NoError(t, fresh.AddLine(pricedLine(KindPurchaseOrder, amount, "0")))
	}
	require.NoError(t, fresh.SetTaxPercentage(d("3")))
	require.NoError(t, fresh.SetDiscountPercentage(d("10")))
	require.NoError(t, fresh.SetShippingCharges(d("250")))

	got, want := agg.Totals(), fresh.Totals()
	assert.Equal(t, want.LineCount, got.LineCount)
	for name, pair := range map[string][2]decimal.Decimal{
		"subtotal": {want.Subtotal, got.Subtotal},
		"tax":      {want.TaxAmount, got.TaxAmount},
		"discount": {want.DiscountAmount, got.DiscountAmount},
		"final":    {want.FinalAmount, got.FinalAmount},
	} {
		assert.Truef(t, pair[0].Equal(pair[1]), "%s: want %s got %s", name, pair[0], pair[1])
	}
	assertDecimal(t, "12500", got.Subtotal)
	assertDecimal(t, "375", got.TaxAmount)
	assertDecimal(t, "1287.5", got.DiscountAmount)
	assertDecimal(t, "11837.5", got.FinalAmount)
}

func TestRemoveLine(t *testing.T) {
	agg := NewAggregate(KindSalesInvoice)
	require.NoError(t, agg.AddLine(pricedLine(KindSalesInvoice, "10000", "300")))

	assert.ErrorIs(t, agg.RemoveLine(1), ErrLineIndex)
	assert.ErrorIs(t, agg.RemoveLine(-1), ErrLineIndex)

	require.NoError(t, agg.RemoveLine(0))
	assert.Equal(t, StateEmpty, agg.State)
	assertDecimal(t, "0", agg.Totals().FinalAmount)
}

func TestInvoiceTaxSumsLineTax(t *testing.T) {
	agg := NewAggregate(KindSalesInvoice)
	require.NoError(t, agg.AddLine(pricedLine(KindSalesInvoice, "10000", "300")))
	require.NoError(t, agg.AddLine(pricedLine(KindSalesInvoice, "5000", "150")))

	totals := agg.Totals()
	assertDecimal(t, "15000", totals.Subtotal)
	assertDecimal(t, "450", totals.TaxAmount)
	assertDecimal(t, "3", totals.TaxPercentage)
	assertDecimal(t, "15450", totals.FinalAmount)
}

func TestKindSpecificFields(t *testing.T) {
	po := NewAggregate(KindPurchaseOrder)
	assert.ErrorIs(t, po.SetPaidAmount(d("100")), ErrNotSupported)

	inv := NewAggregate(KindSalesInvoice)
	assert.ErrorIs(t, inv.SetShippingCharges(d("100")), ErrNotSupported)
	assert.ErrorIs(t, inv.SetTaxPercentage(d("3")), ErrNotSupported)
}

func TestDiscountExceedingTotalIsAdvisoryOnly(t *testing.T) {
	agg := NewAggregate(KindPurchaseOrder)
	require.NoError(t, agg.AddLine(pricedLine(KindPurchaseOrder, "10000", "0")))
	require.NoError(t, agg.SetDiscountAmount(d("12000")))

	totals := agg.Totals()
	require.Len(t, totals.Advisories, 1)
	assert.Equal(t, pricing.AdvisoryDiscountExceedsTotal, totals.Advisories[0].Code)
	assertDecimal(t, "-2000", totals.FinalAmount)

	_, err := agg.BeginSubmit()
	assert.NoError(t, err)
}

func TestSubmitLifecycle(t *testing.T) {
	agg := NewAggregate(KindSalesInvoice)
	_, err := agg.BeginSubmit()
	assert.ErrorIs(t, err, ErrEmptyOrder)
	assert.ErrorIs(t, agg.CompleteSubmit(true), ErrInvalidState)

	require.NoError(t, agg.AddLine(pricedLine(KindSalesInvoice, "10000", "300")))
	require.NoError(t, agg.SetDiscountPercentage(d("5")))

	sub, err := agg.BeginSubmit()
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, agg.State)
	assert.Len(t, sub.Lines, 1)
	assertDecimal(t, "9785", sub.Totals.FinalAmount)

	_, err = agg.BeginSubmit()
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	assert.ErrorIs(t, agg.AddLine(pricedLine(KindSalesInvoice, "1", "0")), ErrSubmitInFlight)
	assert.ErrorIs(t, agg.SetDiscountAmount(d("1")), ErrSubmitInFlight)

	require.NoError(t, agg.CompleteSubmit(false))
	assert.Equal(t, StateFinalizing, agg.State)
	assert.Len(t, agg.Lines, 1)
	assertDecimal(t, "9785", agg.Totals().FinalAmount)

	_, err = agg.BeginSubmit()
	require.NoError(t, err)
	require.NoError(t, agg.CompleteSubmit(true))
	assert.Equal(t, StateEmpty, agg.State)
	assert.Empty(t, agg.Lines)
	assert.False(t, agg.Discount.IsSet())
	assertDecimal(t, "0", agg.Totals().FinalAmount)
}

func TestFormatINR(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12345.5", "₹12,345.50"},
		{"0", "₹0.00"},
		{"999.999", "₹1,000.00"},
		{"-2000", "-₹2,000.00"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatINR(d(tc.in)))
		})
	}
}

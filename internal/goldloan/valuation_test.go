package goldloan

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestValueOfItem(t *testing.T) {
	cases := []struct {
		name   string
		net    string
		purity Purity
		rate   string
		want   string
	}{
		{"22K", "10", Purity22K, "6000", "54960"},
		{"24K", "10", Purity24K, "6000", "60000"},
		{"18K", "10", Purity18K, "6000", "45000"},
		{"fractional floors", "3.33", Purity22K, "6123", "18676"},
		{"zero weight", "0", Purity22K, "6000", "0"},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got := ValueOfItem(d(tt.net), tt.purity, d(tt.rate))
			assert.True(t, d(tt.want).Equal(got), "expected %s, got %s", tt.want, got)
		})
	}
}

// Unrecognised tiers, malformed ones included, are valued at the lowest
// multiplier instead of being rejected.
func TestUnknownPurityFallsBackToLowestMultiplier(t *testing.T) {
	for _, p := range []Purity{"14K", "", "22 carat", "banana"} {
		assert.False(t, p.Known())
		assert.True(t, d("0.583").Equal(p.Multiplier()), "purity %q", p)
		assert.True(t, d("34980").Equal(ValueOfItem(d("10"), p, d("6000"))), "purity %q", p)
	}
	assert.Equal(t, Purity22K, ParsePurity(" 22k "))
	assert.True(t, ParsePurity("22k").Known())
}

func TestMaxLoanFromTotal(t *testing.T) {
	assert.True(t, d("75000").Equal(MaxLoanFromTotal(d("100000"), d("75"))))
	assert.True(t, d("74999").Equal(MaxLoanFromTotal(d("99999.99"), d("75"))))
	assert.True(t, MaxLoanFromTotal(d("100000"), decimal.Zero).IsZero())
}

func TestMaxLoanAmount(t *testing.T) {
	items := []PledgedItem{
		{Type: "chain", Purity: Purity22K, NetWeight: d("10")},
		{Type: "coin", Purity: Purity24K, NetWeight: d("5")},
	}
	got := MaxLoanAmount(items, d("6000"), d("75"))
	assert.True(t, d("63720").Equal(got), "got %s", got)
}

func TestDeriveNetWeight(t *testing.T) {
	assert.True(t, d("11.88").Equal(DeriveNetWeight(d("12.5"))))
	assert.True(t, d("9.85").Equal(DeriveNetWeight(d("10.37"))))
	assert.True(t, DeriveNetWeight(decimal.Zero).IsZero())
}

func TestPledgedItemNetWeightOverride(t *testing.T) {
	var item PledgedItem
	item.SetGrossWeight(d("20"))
	assert.True(t, d("19").Equal(item.NetWeight))

	item.SetNetWeight(d("17.5"))
	item.SetGrossWeight(d("22"))
	assert.True(t, item.NetWeightOverridden)
	assert.True(t, d("17.5").Equal(item.NetWeight))

	item.ResetNetWeight()
	assert.False(t, item.NetWeightOverridden)
	assert.True(t, d("20.9").Equal(item.NetWeight))
}

func TestValuationSummarise(t *testing.T) {
	v := Valuation{
		Items: []PledgedItem{
			{Type: "chain", Purity: Purity22K, NetWeight: d("10")},
			{Type: "coin", Purity: Purity24K, NetWeight: d("5")},
		},
		GoldRate:         d("6000"),
		LoanToValueRatio: d("75"),
	}
	s := v.Summarise()
	require.Len(t, s.Items, 2)
	assert.True(t, d("54960").Equal(s.Items[0].Value))
	assert.True(t, d("0.916").Equal(s.Items[0].Multiplier))
	assert.True(t, d("30000").Equal(s.Items[1].Value))
	assert.True(t, d("84960").Equal(s.TotalValue))
	assert.True(t, d("63720").Equal(s.MaxLoanAmount))
}

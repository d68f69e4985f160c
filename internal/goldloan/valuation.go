package goldloan

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kanak-erp/kanak/internal/pricing"
)

// Purity is the karat tier of a pledged ornament.
type Purity string

const (
	Purity24K Purity = "24K"
	Purity22K Purity = "22K"
	Purity18K Purity = "18K"
)

var (
	multiplier24K      = decimal.NewFromInt(1)
	multiplier22K      = decimal.RequireFromString("0.916")
	multiplier18K      = decimal.RequireFromString("0.75")
	multiplierFallback = decimal.RequireFromString("0.583")

	netWeightFactor = decimal.RequireFromString("0.95")
)

// ParsePurity normalises user input such as "22k" or " 22K ".
func ParsePurity(s string) Purity {
	return Purity(strings.ToUpper(strings.TrimSpace(s)))
}

// Known reports whether p is one of the enumerated tiers.
func (p Purity) Known() bool {
	switch p {
	case Purity24K, Purity22K, Purity18K:
		return true
	}
	return false
}

// Multiplier returns the fineness factor for p. Any tier outside the table,
// including malformed input, gets the 0.583 factor of 14K gold.
func (p Purity) Multiplier() decimal.Decimal {
	switch p {
	case Purity24K:
		return multiplier24K
	case Purity22K:
		return multiplier22K
	case Purity18K:
		return multiplier18K
	default:
		return multiplierFallback
	}
}

// ValueOfItem is floor(netWeight × goldRate × multiplier).
func ValueOfItem(netWeight decimal.Decimal, purity Purity, goldRate decimal.Decimal) decimal.Decimal {
	return netWeight.Mul(goldRate).Mul(purity.Multiplier()).Floor()
}

// MaxLoanFromTotal is floor(totalValue × ltv / 100).
func MaxLoanFromTotal(totalValue, ltvPercent decimal.Decimal) decimal.Decimal {
	return pricing.PercentOf(totalValue, ltvPercent).Floor()
}

// MaxLoanAmount values every item at goldRate and applies the loan-to-value
// ratio to the sum.
func MaxLoanAmount(items []PledgedItem, goldRate, ltvPercent decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(ValueOfItem(item.NetWeight, item.Purity, goldRate))
	}
	return MaxLoanFromTotal(total, ltvPercent)
}

// DeriveNetWeight estimates net weight as 95% of gross, rounded to 2 places.
func DeriveNetWeight(gross decimal.Decimal) decimal.Decimal {
	return gross.Mul(netWeightFactor).Round(2)
}

// PledgedItem is one ornament offered as collateral.
type PledgedItem struct {
	Type                string          `json:"type"`
	Purity              Purity          `json:"purity"`
	GrossWeight         decimal.Decimal `json:"gross_weight"`
	NetWeight           decimal.Decimal `json:"net_weight"`
	NetWeightOverridden bool            `json:"net_weight_overridden"`
}

// SetGrossWeight records a gross weight edit. Net weight follows unless the
// user has typed one in.
func (i *PledgedItem) SetGrossWeight(gross decimal.Decimal) {
	i.GrossWeight = gross
	if !i.NetWeightOverridden {
		i.NetWeight = DeriveNetWeight(gross)
	}
}

// SetNetWeight records a manual net weight and stops auto derivation.
func (i *PledgedItem) SetNetWeight(net decimal.Decimal) {
	i.NetWeight = net
	i.NetWeightOverridden = true
}

// ResetNetWeight returns the item to derived net weight.
func (i *PledgedItem) ResetNetWeight() {
	i.NetWeightOverridden = false
	i.NetWeight = DeriveNetWeight(i.GrossWeight)
}

// Valuation is the collateral step of a loan application.
type Valuation struct {
	Items            []PledgedItem   `json:"items"`
	GoldRate         decimal.Decimal `json:"gold_rate"`
	LoanToValueRatio decimal.Decimal `json:"loan_to_value_ratio"`
}

// ValuedItem is a PledgedItem with its computed value.
type ValuedItem struct {
	PledgedItem
	Multiplier decimal.Decimal `json:"multiplier"`
	Value      decimal.Decimal `json:"value"`
}

// Summary is the computed outcome of a Valuation.
type Summary struct {
	Items            []ValuedItem    `json:"items"`
	GoldRate         decimal.Decimal `json:"gold_rate"`
	LoanToValueRatio decimal.Decimal `json:"loan_to_value_ratio"`
	TotalValue       decimal.Decimal `json:"total_value"`
	MaxLoanAmount    decimal.Decimal `json:"max_loan_amount"`
}

// Summarise values every item and derives the maximum loan amount.
func (v Valuation) Summarise() Summary {
	s := Summary{
		Items:            make([]ValuedItem, 0, len(v.Items)),
		GoldRate:         v.GoldRate,
		LoanToValueRatio: v.LoanToValueRatio,
		TotalValue:       decimal.Zero,
	}
	for _, item := range v.Items {
		value := ValueOfItem(item.NetWeight, item.Purity, v.GoldRate)
		s.Items = append(s.Items, ValuedItem{PledgedItem: item, Multiplier: item.Purity.Multiplier(), Value: value})
		s.TotalValue = s.TotalValue.Add(value)
	}
	s.MaxLoanAmount = MaxLoanFromTotal(s.TotalValue, v.LoanToValueRatio)
	return s
}

package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ChargeKind selects how a charge value is applied.
type ChargeKind string

const (
	// ChargeFlat is an absolute rupee amount.
	ChargeFlat ChargeKind = "FLAT"
	// ChargePercentage is a percentage of netWeight × rate.
	ChargePercentage ChargeKind = "PERCENTAGE"
	// ChargePerWeight is an amount per unit of net weight.
	ChargePerWeight ChargeKind = "PER_WEIGHT"
)

// ParseChargeKind normalises user supplied kind names. Unrecognised input
// falls back to FLAT.
func ParseChargeKind(s string) ChargeKind {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	switch key {
	case "PERCENTAGE", "PERCENT", "%":
		return ChargePercentage
	case "PER_WEIGHT", "PER_GRAM", "PER_GM", "WEIGHT":
		return ChargePerWeight
	default:
		return ChargeFlat
	}
}

// Valid reports whether k is one of the known kinds.
func (k ChargeKind) Valid() bool {
	switch k {
	case ChargeFlat, ChargePercentage, ChargePerWeight:
		return true
	}
	return false
}

// ChargePolicy pairs a kind with its value.
type ChargePolicy struct {
	Kind  ChargeKind      `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// Flat builds a FLAT policy.
func Flat(v decimal.Decimal) ChargePolicy { return ChargePolicy{Kind: ChargeFlat, Value: v} }

// Percentage builds a PERCENTAGE policy.
func Percentage(v decimal.Decimal) ChargePolicy {
	return ChargePolicy{Kind: ChargePercentage, Value: v}
}

// PerWeight builds a PER_WEIGHT policy.
func PerWeight(v decimal.Decimal) ChargePolicy {
	return ChargePolicy{Kind: ChargePerWeight, Value: v}
}

// ComputeCharge converts a charge policy into an amount. A PERCENTAGE charge is
// always taken from netWeight × rate, never from a running total.
func ComputeCharge(policy ChargePolicy, netWeight, rate decimal.Decimal) decimal.Decimal {
	switch policy.Kind {
	case ChargeFlat:
		return policy.Value
	case ChargePercentage:
		return PercentOf(netWeight.Mul(rate), policy.Value)
	case ChargePerWeight:
		return policy.Value.Mul(netWeight)
	default:
		return decimal.Zero
	}
}

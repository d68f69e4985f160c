package pricing

import "github.com/shopspring/decimal"

// Field tags which side of a Pair the user edited last.
type Field string

const (
	FieldNone       Field = ""
	FieldAmount     Field = "amount"
	FieldPercentage Field = "percentage"
)

// Pair keeps an amount and its percentage of a base price consistent. The
// LastEdited side is authoritative; the other one is always derived from it,
// so a change of base never bounces back and forth between the two.
type Pair struct {
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
	LastEdited Field           `json:"last_edited,omitempty"`
}

// Reconcile derives the non-edited side of the pair against base.
func Reconcile(edited Field, amount, percentage, base decimal.Decimal) Pair {
	switch edited {
	case FieldAmount:
		return Pair{Amount: amount, Percentage: RatioPercent(amount, base), LastEdited: FieldAmount}
	case FieldPercentage:
		return Pair{Amount: PercentOf(base, percentage), Percentage: percentage, LastEdited: FieldPercentage}
	default:
		return Pair{}
	}
}

// WithAmount records an edit of the amount side.
func (p Pair) WithAmount(amount, base decimal.Decimal) Pair {
	return Reconcile(FieldAmount, amount, p.Percentage, base)
}

// WithPercentage records an edit of the percentage side.
func (p Pair) WithPercentage(pct, base decimal.Decimal) Pair {
	return Reconcile(FieldPercentage, p.Amount, pct, base)
}

// Rebase rederives the pair after base moved because of an unrelated edit. A
// pair that was never edited collapses to zero.
func (p Pair) Rebase(base decimal.Decimal) Pair {
	return Reconcile(p.LastEdited, p.Amount, p.Percentage, base)
}

// IsSet reports whether either side has been edited.
func (p Pair) IsSet() bool {
	return p.LastEdited != FieldNone
}

package pricing

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var hundred = decimal.NewFromInt(100)

// Coerce converts loosely typed form input into a decimal. Blank, missing or
// non-numeric values become zero; it never fails.
func Coerce(v any) decimal.Decimal {
	switch n := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return n
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero
		}
		return *n
	case FlexNumber:
		return n.Decimal
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return decimal.Zero
		}
		if d, err := decimal.NewFromString(s); err == nil {
			return d
		}
		return decimal.Zero
	case bool:
		return decimal.Zero
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// PercentOf returns pct percent of base.
func PercentOf(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// RatioPercent expresses part as a percentage of base. A non-positive base
// yields zero.
func RatioPercent(part, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	return part.Div(base).Mul(hundred)
}

// FlexNumber is a JSON number that accepts what a form field sends: numbers,
// numeric strings, blanks and garbage (the last two decode as zero).
type FlexNumber struct {
	decimal.Decimal
}

// Num wraps a decimal into a FlexNumber.
func Num(d decimal.Decimal) FlexNumber {
	return FlexNumber{Decimal: d}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		n.Decimal = decimal.Zero
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			n.Decimal = decimal.Zero
			return nil
		}
		n.Decimal = Coerce(s)
		return nil
	}
	n.Decimal = Coerce(string(b))
	return nil
}

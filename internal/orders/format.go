package orders

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var inrPrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatINR renders an amount as rupees with two decimals and Indian digit
// grouping.
func FormatINR(d decimal.Decimal) string {
	v := d.Round(2).InexactFloat64()
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + "₹" + inrPrinter.Sprintf("%v", number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.Round(2).String())
}

func percent(d decimal.Decimal) json.Number {
	return json.Number(d.Round(4).String())
}

func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

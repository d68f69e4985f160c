package pricing

import "fmt"

// AdvisoryCode identifies a cross-field rule violation.
type AdvisoryCode string

const (
	AdvisoryNetExceedsGross      AdvisoryCode = "NET_EXCEEDS_GROSS"
	AdvisoryBelowProfitThreshold AdvisoryCode = "BELOW_PROFIT_THRESHOLD"
	AdvisoryDiscountExceedsTotal AdvisoryCode = "DISCOUNT_EXCEEDS_TOTAL"
)

// Advisory is an inline, non-blocking message attached to a field. It disables
// the commit action of its form but never alters computed values.
type Advisory struct {
	Code    AdvisoryCode `json:"code"`
	Field   string       `json:"field"`
	Message string       `json:"message"`
}

func (a Advisory) String() string {
	return fmt.Sprintf("%s(%s): %s", a.Code, a.Field, a.Message)
}

// HasAdvisory reports whether code is present in list.
func HasAdvisory(list []Advisory, code AdvisoryCode) bool {
	for _, a := range list {
		if a.Code == code {
			return true
		}
	}
	return false
}

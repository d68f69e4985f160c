package pricing

import (
	"errors"
	"fmt"
)

// ErrUnknownField is returned when an edit names a field the form does not have.
var ErrUnknownField = errors.New("pricing: unknown field")

// Edit is a single keystroke-level change to one field of a LineItem.
type Edit struct {
	Field string     `json:"field" validate:"required"`
	Value FlexNumber `json:"value"`
	Kind  string     `json:"kind,omitempty"`
	Text  string     `json:"text,omitempty"`
}

// ApplyEdit routes e to the matching LineItem setter. Charge edits keep the
// existing kind unless e.Kind is given.
func ApplyEdit(line *LineItem, e Edit) error {
	v := e.Value.Decimal
	switch e.Field {
	case "purity_id":
		line.SetPurity(e.Text)
	case "label":
		line.SetLabel(e.Text)
	case "gross_weight":
		line.SetGrossWeight(v)
	case "net_weight":
		line.SetNetWeight(v)
	case "rate":
		line.SetRate(v)
	case "wastage":
		line.SetWastage(chargeFor(line.Wastage, e))
	case "making":
		line.SetMaking(chargeFor(line.Making, e))
	case "other_charges_amount":
		line.SetOtherChargesAmount(v)
	case "other_charges_percentage":
		line.SetOtherChargesPercentage(v)
	case "gst_percentage":
		line.SetGSTPercentage(v)
	case "tax_percentage":
		line.SetTaxPercentage(v)
	case "profit_percentage":
		line.SetProfitPercentage(v)
	case "threshold_profit_percentage":
		line.SetThresholdProfitPercentage(v)
	case "selling_price":
		line.SetSellingPrice(v)
	case "selling_price_reset":
		line.ClearSellingPrice()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, e.Field)
	}
	return nil
}

func chargeFor(current ChargePolicy, e Edit) ChargePolicy {
	kind := current.Kind
	if e.Kind != "" {
		kind = ParseChargeKind(e.Kind)
	}
	if kind == "" {
		kind = ChargeFlat
	}
	return ChargePolicy{Kind: kind, Value: e.Value.Decimal}
}

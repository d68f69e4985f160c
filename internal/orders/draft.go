package orders

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kanak-erp/kanak/internal/inventory"
	"github.com/kanak-erp/kanak/internal/pricing"
)

// Header carries the counterparty and reference of an order.
type Header struct {
	PartyID   string `json:"party_id,omitempty"`
	PartyName string `json:"party_name,omitempty"`
	Reference string `json:"reference,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Defaults are the lookup values a fresh line starts from.
type Defaults struct {
	GSTPercentage decimal.Decimal `json:"gst_percentage"`
}

// Draft is one open item builder form: the row being edited plus the order
// it will be committed into.
type Draft struct {
	ID         string           `json:"id"`
	Kind       Kind             `json:"kind"`
	Header     Header           `json:"header"`
	CategoryID string           `json:"category_id,omitempty"`
	Line       pricing.LineItem `json:"line"`
	Extras     inventory.Extras `json:"extras"`
	Aggregate  Aggregate        `json:"aggregate"`
	Defaults   Defaults         `json:"defaults"`
	// Revision counts saves; the store rejects a write based on an older one.
	Revision int64 `json:"revision"`
	// SubmitAttempts counts submissions started from a settled draft. A
	// resumed submission keeps the count, so it reuses the idempotency key.
	SubmitAttempts int       `json:"submit_attempts"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// resetLine clears the row after a commit, keeping the GST default.
func (d *Draft) resetLine(p Profile) {
	d.Line = pricing.NewLineItem()
	d.Extras = inventory.Extras{}
	d.CategoryID = ""
	p.SeedGST(&d.Line, d.Defaults.GSTPercentage)
}

// submitKey is the idempotency key of the current submission attempt.
func (d *Draft) submitKey() string {
	return fmt.Sprintf("%s-%d", d.ID, d.SubmitAttempts)
}

// View is the complete derived state of a Draft returned to clients.
type View struct {
	ID         string               `json:"id"`
	Kind       Kind                 `json:"kind"`
	State      State                `json:"state"`
	Header     Header               `json:"header"`
	CategoryID string               `json:"category_id,omitempty"`
	Line       pricing.LineSnapshot `json:"line"`
	Extras     inventory.Extras     `json:"extras"`
	Lines      []Line               `json:"lines"`
	Totals     Totals               `json:"totals"`
	Display    Display              `json:"display"`
	CanSubmit  bool                 `json:"can_submit"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// Display holds pre-formatted rupee strings of the totals.
type Display struct {
	Subtotal     string `json:"subtotal"`
	TaxAmount    string `json:"tax_amount"`
	Discount     string `json:"discount"`
	Shipping     string `json:"shipping,omitempty"`
	FinalAmount  string `json:"final_amount"`
	SellingPrice string `json:"selling_price"`
}

// ViewOf renders d.
func ViewOf(d Draft) View {
	totals := d.Aggregate.Totals()
	line := d.Line.Snapshot()
	v := View{
		ID:         d.ID,
		Kind:       d.Kind,
		State:      d.Aggregate.State,
		Header:     d.Header,
		CategoryID: d.CategoryID,
		Line:       line,
		Extras:     d.Extras,
		Lines:      append([]Line{}, d.Aggregate.Lines...),
		Totals:     totals,
		Display: Display{
			Subtotal:     FormatINR(totals.Subtotal),
			TaxAmount:    FormatINR(totals.TaxAmount),
			Discount:     FormatINR(totals.DiscountAmount),
			FinalAmount:  FormatINR(totals.FinalAmount),
			SellingPrice: FormatINR(line.SellingPrice),
		},
		CanSubmit: len(d.Aggregate.Lines) > 0 && d.Aggregate.State != StateSubmitted,
		UpdatedAt: d.UpdatedAt,
	}
	if d.Kind == KindPurchaseOrder {
		v.Display.Shipping = FormatINR(totals.ShippingCharges)
	}
	return v
}

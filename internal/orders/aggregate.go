package orders

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kanak-erp/kanak/internal/pricing"
)

// Kind is the type of order a draft produces.
type Kind string

const (
	KindPurchaseOrder Kind = "PURCHASE_ORDER"
	KindSalesInvoice  Kind = "SALES_INVOICE"
)

// State is the lifecycle position of an Aggregate.
type State string

const (
	StateEmpty        State = "EMPTY"
	StateAccumulating State = "ACCUMULATING"
	StateFinalizing   State = "FINALIZING"
	StateSubmitted    State = "SUBMITTED"
)

// Line is a committed row of an order.
type Line struct {
	InventoryItemID string               `json:"inventory_item_id"`
	Label           string               `json:"label,omitempty"`
	Amount          decimal.Decimal      `json:"amount"`
	TaxAmount       decimal.Decimal      `json:"tax_amount"`
	Pricing         pricing.LineSnapshot `json:"pricing"`
}

// NewLine freezes a priced row. Purchase lines are carried at purchase
// price; invoice lines at selling price with their own sale tax.
func NewLine(kind Kind, snap pricing.LineSnapshot, inventoryItemID string) Line {
	line := Line{InventoryItemID: inventoryItemID, Label: snap.Label, Pricing: snap}
	switch kind {
	case KindSalesInvoice:
		line.Amount = snap.SellingPrice
		line.TaxAmount = snap.TaxAmount
	default:
		line.Amount = snap.PurchasePrice
		line.TaxAmount = decimal.Zero
	}
	return line
}

// Totals is the derived money summary of an Aggregate.
type Totals struct {
	LineCount          int                `json:"line_count"`
	Subtotal           decimal.Decimal    `json:"subtotal"`
	TaxPercentage      decimal.Decimal    `json:"tax_percentage"`
	TaxAmount          decimal.Decimal    `json:"tax_amount"`
	PreDiscountTotal   decimal.Decimal    `json:"pre_discount_total"`
	DiscountAmount     decimal.Decimal    `json:"discount_amount"`
	DiscountPercentage decimal.Decimal    `json:"discount_percentage"`
	DiscountSource     string             `json:"discount_source"`
	PaidAmount         *decimal.Decimal   `json:"paid_amount,omitempty"`
	ShippingCharges    decimal.Decimal    `json:"shipping_charges"`
	FinalAmount        decimal.Decimal    `json:"final_amount"`
	Advisories         []pricing.Advisory `json:"advisories"`
}

// Aggregate is one purchase order or sales invoice being assembled. All
// derived values come from Totals, which recomputes from the lines each time.
type Aggregate struct {
	Kind            Kind             `json:"kind"`
	State           State            `json:"state"`
	Lines           []Line           `json:"lines"`
	Discount        pricing.Pair     `json:"discount"`
	PaidAmount      *decimal.Decimal `json:"paid_amount,omitempty"`
	TaxPercentage   decimal.Decimal  `json:"tax_percentage"`
	ShippingCharges decimal.Decimal  `json:"shipping_charges"`
	PriorState      State            `json:"prior_state,omitempty"`
}

// NewAggregate returns an empty aggregate of kind.
func NewAggregate(kind Kind) *Aggregate {
	return &Aggregate{Kind: kind, State: StateEmpty, Lines: []Line{}}
}

// AddLine appends a committed line.
func (a *Aggregate) AddLine(line Line) error {
	if err := a.mutable(); err != nil {
		return err
	}
	a.Lines = append(a.Lines, line)
	a.State = StateAccumulating
	return nil
}

// RemoveLine deletes the line at index.
func (a *Aggregate) RemoveLine(index int) error {
	if err := a.mutable(); err != nil {
		return err
	}
	if index < 0 || index >= len(a.Lines) {
		return fmt.Errorf("%w: %d", ErrLineIndex, index)
	}
	a.Lines = append(a.Lines[:index:index], a.Lines[index+1:]...)
	if len(a.Lines) == 0 {
		a.State = StateEmpty
	} else {
		a.State = StateAccumulating
	}
	return nil
}

// SetDiscountAmount edits the rupee side of the discount. Any paid amount
// override is dropped.
func (a *Aggregate) SetDiscountAmount(v decimal.Decimal) error {
	if err := a.mutable(); err != nil {
		return err
	}
	a.PaidAmount = nil
	a.Discount = a.Discount.WithAmount(v, a.discountBase())
	a.finalize()
	return nil
}

// SetDiscountPercentage edits the percentage side of the discount. Any paid
// amount override is dropped.
func (a *Aggregate) SetDiscountPercentage(v decimal.Decimal) error {
	if err := a.mutable(); err != nil {
		return err
	}
	a.PaidAmount = nil
	a.Discount = a.Discount.WithPercentage(v, a.discountBase())
	a.finalize()
	return nil
}

// SetPaidAmount records what the customer actually paid; the discount is
// then back-computed from it.
func (a *Aggregate) SetPaidAmount(v decimal.Decimal) error {
	if a.Kind != KindSalesInvoice {
		return fmt.Errorf("%w: paid amount", ErrNotSupported)
	}
	if err := a.mutable(); err != nil {
		return err
	}
	a.PaidAmount = &v
	a.Discount = pricing.Pair{}
	a.finalize()
	return nil
}

// ClearPaidAmount removes the paid amount override.
func (a *Aggregate) ClearPaidAmount() error {
	if err := a.mutable(); err != nil {
		return err
	}
	a.PaidAmount = nil
	a.finalize()
	return nil
}

// SetTaxPercentage sets the order level tax of a purchase order.
func (a *Aggregate) SetTaxPercentage(v decimal.Decimal) error {
	if a.Kind != KindPurchaseOrder {
		return fmt.Errorf("%w: order tax percentage", ErrNotSupported)
	}
	if err := a.mutable(); err != nil {
		return err
	}
	a.TaxPercentage = v
	a.finalize()
	return nil
}

// SetShippingCharges sets shipping on a purchase order.
func (a *Aggregate) SetShippingCharges(v decimal.Decimal) error {
	if a.Kind != KindPurchaseOrder {
		return fmt.Errorf("%w: shipping charges", ErrNotSupported)
	}
	if err := a.mutable(); err != nil {
		return err
	}
	a.ShippingCharges = v
	a.finalize()
	return nil
}

// Totals recomputes every derived amount from the current lines.
func (a *Aggregate) Totals() Totals {
	t := Totals{
		LineCount:      len(a.Lines),
		Subtotal:       decimal.Zero,
		TaxAmount:      decimal.Zero,
		DiscountSource: "none",
		Advisories:     []pricing.Advisory{},
	}
	for _, line := range a.Lines {
		t.Subtotal = t.Subtotal.Add(line.Amount)
		t.TaxAmount = t.TaxAmount.Add(line.TaxAmount)
	}
	if a.Kind == KindPurchaseOrder {
		t.TaxPercentage = a.TaxPercentage
		t.TaxAmount = pricing.PercentOf(t.Subtotal, a.TaxPercentage)
		t.ShippingCharges = a.ShippingCharges
	} else {
		t.TaxPercentage = pricing.RatioPercent(t.TaxAmount, t.Subtotal)
		t.ShippingCharges = decimal.Zero
	}
	t.PreDiscountTotal = t.Subtotal.Add(t.TaxAmount)

	switch {
	case a.PaidAmount != nil:
		paid := *a.PaidAmount
		t.PaidAmount = &paid
		t.DiscountAmount = decimal.Max(decimal.Zero, t.PreDiscountTotal.Sub(paid))
		t.DiscountPercentage = pricing.RatioPercent(t.DiscountAmount, t.PreDiscountTotal)
		t.DiscountSource = "paid_amount"
	default:
		pair := a.Discount.Rebase(t.PreDiscountTotal)
		t.DiscountAmount = pair.Amount
		t.DiscountPercentage = pair.Percentage
		if pair.IsSet() {
			t.DiscountSource = string(pair.LastEdited)
		}
	}

	if t.DiscountAmount.GreaterThan(t.PreDiscountTotal) {
		t.Advisories = append(t.Advisories, pricing.Advisory{
			Code:    pricing.AdvisoryDiscountExceedsTotal,
			Field:   "discount_amount",
			Message: fmt.Sprintf("discount %s exceeds payable total %s", t.DiscountAmount.StringFixed(2), t.PreDiscountTotal.StringFixed(2)),
		})
	}
	t.FinalAmount = t.PreDiscountTotal.Sub(t.DiscountAmount).Add(t.ShippingCharges)
	return t
}

// Submission is the payload handed to the order creation collaborator.
type Submission struct {
	Kind   Kind   `json:"kind"`
	Lines  []Line `json:"lines"`
	Totals Totals `json:"totals"`
	// IdempotencyKey is stable across retries of one submission attempt.
	IdempotencyKey string `json:"-"`
}

// BeginSubmit freezes the aggregate for submission. Only an empty item list
// blocks it; advisories on the totals do not.
func (a *Aggregate) BeginSubmit() (Submission, error) {
	if a.State == StateSubmitted {
		return Submission{}, ErrSubmitInFlight
	}
	if len(a.Lines) == 0 {
		return Submission{}, ErrEmptyOrder
	}
	sub := Submission{
		Kind:   a.Kind,
		Lines:  append([]Line(nil), a.Lines...),
		Totals: a.Totals(),
	}
	a.PriorState = a.State
	a.State = StateSubmitted
	return sub, nil
}

// CompleteSubmit ends a submission. Success resets the aggregate; failure
// puts it back exactly as it was before BeginSubmit.
func (a *Aggregate) CompleteSubmit(ok bool) error {
	if a.State != StateSubmitted {
		return fmt.Errorf("%w: no submission in progress", ErrInvalidState)
	}
	if ok {
		a.Reset()
		return nil
	}
	a.State = a.PriorState
	a.PriorState = ""
	return nil
}

// Reset returns the aggregate to EMPTY.
func (a *Aggregate) Reset() {
	*a = *NewAggregate(a.Kind)
}

func (a *Aggregate) discountBase() decimal.Decimal {
	return a.Totals().PreDiscountTotal
}

func (a *Aggregate) finalize() {
	if len(a.Lines) > 0 {
		a.State = StateFinalizing
	}
}

func (a *Aggregate) mutable() error {
	if a.State == StateSubmitted {
		return ErrSubmitInFlight
	}
	return nil
}

package orders

import (
	"context"
	"encoding/json"

	"github.com/kanak-erp/kanak/internal/platform/remote"
	"github.com/kanak-erp/kanak/internal/shared"
)

// SubmitReceipt identifies the order created by the API.
type SubmitReceipt struct {
	ID     string `json:"id"`
	Number string `json:"number,omitempty"`
}

// Submitter hands a finished order to its system of record.
type Submitter interface {
	Submit(ctx context.Context, header Header, sub Submission) shared.Result[SubmitReceipt]
}

// RemoteSubmitter posts orders to the back-office API.
type RemoteSubmitter struct {
	api  *remote.Client
	path string
}

// NewRemoteSubmitter constructs a submitter for profile p.
func NewRemoteSubmitter(api *remote.Client, p Profile) *RemoteSubmitter {
	return &RemoteSubmitter{api: api, path: p.SubmitPath}
}

type submitItem struct {
	InventoryItemID string      `json:"inventoryItemId"`
	Label           string      `json:"label,omitempty"`
	Amount          json.Number `json:"amount"`
	TaxAmount       json.Number `json:"taxAmount"`
	SellingPrice    json.Number `json:"sellingPrice"`
	PurchasePrice   json.Number `json:"purchasePrice"`
}

type submitBody struct {
	Kind               Kind         `json:"kind"`
	PartyID            *string      `json:"partyId"`
	PartyName          *string      `json:"partyName"`
	Reference          *string      `json:"reference"`
	Notes              *string      `json:"notes"`
	Items              []submitItem `json:"items"`
	Subtotal           json.Number  `json:"subtotal"`
	TaxPercentage      json.Number  `json:"taxPercentage"`
	TaxAmount          json.Number  `json:"taxAmount"`
	DiscountAmount     json.Number  `json:"discountAmount"`
	DiscountPercentage json.Number  `json:"discountPercentage"`
	PaidAmount         *json.Number `json:"paidAmount"`
	ShippingCharges    json.Number  `json:"shippingCharges"`
	FinalAmount        json.Number  `json:"finalAmount"`
}

func (s *RemoteSubmitter) Submit(ctx context.Context, header Header, sub Submission) shared.Result[SubmitReceipt] {
	var receipt SubmitReceipt
	var opts []remote.RequestOption
	if sub.IdempotencyKey != "" {
		opts = append(opts, remote.WithHeader("Idempotency-Key", sub.IdempotencyKey))
	}
	if err := s.api.Post(ctx, s.path, buildBody(header, sub), &receipt, opts...); err != nil {
		return shared.Fail[SubmitReceipt](err)
	}
	return shared.Ok(receipt)
}

func buildBody(header Header, sub Submission) submitBody {
	t := sub.Totals
	body := submitBody{
		Kind:               sub.Kind,
		PartyID:            optionalText(header.PartyID),
		PartyName:          optionalText(header.PartyName),
		Reference:          optionalText(header.Reference),
		Notes:              optionalText(header.Notes),
		Items:              make([]submitItem, 0, len(sub.Lines)),
		Subtotal:           money(t.Subtotal),
		TaxPercentage:      percent(t.TaxPercentage),
		TaxAmount:          money(t.TaxAmount),
		DiscountAmount:     money(t.DiscountAmount),
		DiscountPercentage: percent(t.DiscountPercentage),
		ShippingCharges:    money(t.ShippingCharges),
		FinalAmount:        money(t.FinalAmount),
	}
	if t.PaidAmount != nil {
		paid := money(*t.PaidAmount)
		body.PaidAmount = &paid
	}
	for _, line := range sub.Lines {
		body.Items = append(body.Items, submitItem{
			InventoryItemID: line.InventoryItemID,
			Label:           line.Label,
			Amount:          money(line.Amount),
			TaxAmount:       money(line.TaxAmount),
			SellingPrice:    money(line.Pricing.SellingPrice),
			PurchasePrice:   money(line.Pricing.PurchasePrice),
		})
	}
	return body
}

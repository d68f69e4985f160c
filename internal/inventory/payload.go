package inventory

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kanak-erp/kanak/internal/pricing"
)

// ItemPayload is the flat inventory record created for a committed line.
// Numbers are sent as JSON numbers; blank optional text is sent as null.
type ItemPayload struct {
	Source                    string      `json:"source"`
	Label                     *string     `json:"label"`
	PurityID                  *string     `json:"purityId"`
	HUID                      *string     `json:"huid"`
	Description               *string     `json:"description"`
	GrossWeight               json.Number `json:"grossWeight"`
	NetWeight                 json.Number `json:"netWeight"`
	StoneWeight               json.Number `json:"stoneWeight"`
	Rate                      json.Number `json:"rate"`
	WastageType               string      `json:"wastageType"`
	WastageValue              json.Number `json:"wastageValue"`
	WastageCharges            json.Number `json:"wastageCharges"`
	OtherCharges              json.Number `json:"otherCharges"`
	OtherChargesPercentage    json.Number `json:"otherChargesPercentage"`
	GSTPercentage             json.Number `json:"gstPercentage"`
	GSTAmount                 json.Number `json:"gstAmount"`
	PurchasePrice             json.Number `json:"purchasePrice"`
	MakingType                string      `json:"makingType"`
	MakingValue               json.Number `json:"makingValue"`
	MakingCharges             json.Number `json:"makingCharges"`
	ProfitPercentage          json.Number `json:"profitPercentage"`
	ThresholdProfitPercentage json.Number `json:"thresholdProfitPercentage"`
	SellingPrice              json.Number `json:"sellingPrice"`
	TaxPercentage             json.Number `json:"taxPercentage"`
	TaxAmount                 json.Number `json:"taxAmount"`
}

// Extras are optional descriptive fields entered alongside a line.
type Extras struct {
	HUID        string `json:"huid"`
	Description string `json:"description"`
}

// PayloadFrom flattens a priced line into an ItemPayload. source tags the flow
// that created the item ("PURCHASE_ORDER" or "SALES_INVOICE").
func PayloadFrom(source string, snap pricing.LineSnapshot, extras Extras) ItemPayload {
	return ItemPayload{
		Source:                    source,
		Label:                     optional(snap.Label),
		PurityID:                  optional(snap.PurityID),
		HUID:                      optional(extras.HUID),
		Description:               optional(extras.Description),
		GrossWeight:               number(snap.GrossWeight, 3),
		NetWeight:                 number(snap.NetWeight, 3),
		StoneWeight:               number(snap.StoneWeight, 3),
		Rate:                      number(snap.Rate, 2),
		WastageType:               string(snap.Wastage.Kind),
		WastageValue:              number(snap.Wastage.Value, 4),
		WastageCharges:            number(snap.WastageCharges, 2),
		OtherCharges:              number(snap.OtherChargesAmount, 2),
		OtherChargesPercentage:    number(snap.OtherChargesPercentage, 4),
		GSTPercentage:             number(snap.GSTPercentage, 4),
		GSTAmount:                 number(snap.GSTAmount, 2),
		PurchasePrice:             number(snap.PurchasePrice, 2),
		MakingType:                string(snap.Making.Kind),
		MakingValue:               number(snap.Making.Value, 4),
		MakingCharges:             number(snap.MakingCharges, 2),
		ProfitPercentage:          number(snap.ProfitPercentage, 4),
		ThresholdProfitPercentage: number(snap.ThresholdProfitPercentage, 4),
		SellingPrice:              number(snap.SellingPrice, 2),
		TaxPercentage:             number(snap.TaxPercentage, 4),
		TaxAmount:                 number(snap.TaxAmount, 2),
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// number rounds d to places and drops trailing zeros.
func number(d decimal.Decimal, places int32) json.Number {
	return json.Number(d.Round(places).String())
}

package orders

import (
	"github.com/shopspring/decimal"

	"github.com/kanak-erp/kanak/internal/catalog"
	"github.com/kanak-erp/kanak/internal/pricing"
)

// Profile captures what differs between the purchase and sales flows.
type Profile struct {
	Kind Kind
	// Slug names the flow in keys, logs and metrics.
	Slug string
	// GSTSettingKey is the settings entry seeding new lines.
	GSTSettingKey string
	// SubmitPath is the API endpoint receiving finished orders.
	SubmitPath string
}

// PurchaseProfile drives the purchase order item builder.
var PurchaseProfile = Profile{
	Kind:          KindPurchaseOrder,
	Slug:          "purchase",
	GSTSettingKey: catalog.SettingBuyGST,
	SubmitPath:    "/purchase-orders",
}

// SalesProfile drives the sales invoice item builder.
var SalesProfile = Profile{
	Kind:          KindSalesInvoice,
	Slug:          "sales",
	GSTSettingKey: catalog.SettingSellGST,
	SubmitPath:    "/invoices",
}

// ProfileFor returns the profile of kind.
func ProfileFor(kind Kind) (Profile, bool) {
	switch kind {
	case KindPurchaseOrder:
		return PurchaseProfile, true
	case KindSalesInvoice:
		return SalesProfile, true
	}
	return Profile{}, false
}

// SeedGST applies the configured GST default to a fresh line. Purchases
// charge it inside the price pipeline; sales charge it as sale tax on the
// selling price.
func (p Profile) SeedGST(line *pricing.LineItem, pct decimal.Decimal) {
	if p.Kind == KindSalesInvoice {
		line.SetTaxPercentage(pct)
		return
	}
	line.SetGSTPercentage(pct)
}

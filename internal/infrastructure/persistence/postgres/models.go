package postgres

import (
	"time"
)

// OrderModel is the row shape of p2p_orders. Numeric columns travel as text
// so they round-trip through decimal without float conversion. Processing
// columns are NULL until the first attempt.
type OrderModel struct {
	OrderNumber  string
	TradeType    string
	Asset        string
	Fiat         string
	Quantity     string
	UnitPrice    string
	TotalPrice   string
	Commission   string
	Counterparty string
	CreatedAt    time.Time

	ProcessedAt       *time.Time
	ProcessingMethod  *string
	Success           *bool
	AuthorizationCode *string
	CAEExpiration     *time.Time
	VoucherNumber     *int64
	InvoiceDate       *time.Time
	PointOfSale       *int32
	InvoiceType       *int32
	ErrorMessage      *string
}

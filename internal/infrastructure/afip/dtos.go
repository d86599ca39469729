package afip

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	dateLayout = "20060102"

	resultApproved = "A"

	docTypeCUIT          = 80
	docTypeFinalConsumer = 99
)

// voucherRequest is the gateway's JSON rendering of an FECAESolicitar detail
// for a single voucher.
type voucherRequest struct {
	PointOfSale       int             `json:"point_of_sale"`
	InvoiceType       int             `json:"invoice_type"`
	Concept           int             `json:"concept"`
	DocType           int             `json:"doc_type"`
	DocNumber         string          `json:"doc_number"`
	VoucherFrom       int64           `json:"voucher_from"`
	VoucherTo         int64           `json:"voucher_to"`
	Date              string          `json:"date"`
	Total             decimal.Decimal `json:"total"`
	Net               decimal.Decimal `json:"net"`
	Exempt            decimal.Decimal `json:"exempt"`
	Tax               decimal.Decimal `json:"tax"`
	ServiceFrom       string          `json:"service_from,omitempty"`
	ServiceTo         string          `json:"service_to,omitempty"`
	PaymentDue        string          `json:"payment_due,omitempty"`
	Currency          string          `json:"currency"`
	CurrencyRate      decimal.Decimal `json:"currency_rate"`
	VAT               []vatLine       `json:"vat,omitempty"`
	ExternalReference string          `json:"external_reference"`
}

type vatLine struct {
	ID     int             `json:"id"`
	Base   decimal.Decimal `json:"base"`
	Amount decimal.Decimal `json:"amount"`
}

type voucherResponse struct {
	Result        string    `json:"result"`
	CAE           string    `json:"cae"`
	CAEExpiration string    `json:"cae_expiration"`
	VoucherNumber int64     `json:"voucher_number"`
	Observations  []message `json:"observations"`
	Errors        []message `json:"errors"`
}

type message struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (m message) String() string {
	return fmt.Sprintf("%d: %s", m.Code, m.Message)
}

type lastVoucherResponse struct {
	PointOfSale   int   `json:"point_of_sale"`
	InvoiceType   int   `json:"invoice_type"`
	VoucherNumber int64 `json:"voucher_number"`
}

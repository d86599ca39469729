package application

import (
	"context"
	"errors"
	"time"

	"github.com/DanielPopoola/p2p-invoicing/internal/domain"
	"github.com/shopspring/decimal"
)

// InvoicingClient is the port for the tax authority transport. Transport
// problems are returned as errors; a refusal by the authority is a response
// with Approved set to false.
type InvoicingClient interface {
	LastVoucherNumber(ctx context.Context, pointOfSale int, invoiceType domain.InvoiceType) (int64, error)
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error)
}

// SubmitRequest is the structured invoice handed to the transport.
type SubmitRequest struct {
	OrderNumber   string
	PointOfSale   int
	InvoiceType   domain.InvoiceType
	Concept       domain.Concept
	VoucherNumber int64
	InvoiceDate   time.Time
	Net           decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	Currency      domain.Currency
	BuyerTaxID    string
	ServiceFrom   time.Time
	ServiceTo     time.Time
	PaymentDue    time.Time
}

// NewSubmitRequest maps an invoice and a candidate voucher number to the
// transport request.
func NewSubmitRequest(inv *domain.Invoice, voucherNumber int64) SubmitRequest {
	req := SubmitRequest{
		OrderNumber:   inv.OrderNumber().String(),
		PointOfSale:   inv.PointOfSale(),
		InvoiceType:   inv.InvoiceType(),
		Concept:       inv.Concept(),
		VoucherNumber: voucherNumber,
		InvoiceDate:   inv.Date(),
		Net:           inv.Net().Amount(),
		Tax:           inv.Tax().Amount(),
		Total:         inv.Total().Amount(),
		Currency:      inv.Total().Currency(),
		ServiceFrom:   inv.ServiceFrom(),
		ServiceTo:     inv.ServiceTo(),
		PaymentDue:    inv.PaymentDue(),
	}
	if buyer := inv.Buyer(); buyer != nil {
		req.BuyerTaxID = buyer.String()
	}
	return req
}

type SubmitResponse struct {
	Approved          bool
	AuthorizationCode string
	Expiration        time.Time
	VoucherNumber     int64
	Errors            []string
}

// FetchOptions narrows what the order source returns.
type FetchOptions struct {
	SinceDays int
	TradeType domain.TradeType
}

// OrderSource is the port for the exchange order ingestion client.
type OrderSource interface {
	Fetch(ctx context.Context, opts FetchOptions) ([]*domain.Order, error)
}

// PendingFilter selects orders that have not been invoiced successfully.
type PendingFilter struct {
	TradeType domain.TradeType
	Limit     int
}

// OrderSummary aggregates stored orders by processing status.
type OrderSummary struct {
	Total       int
	Unprocessed int
	Succeeded   int
	Failed      int
	Manual      int
}

var (
	// ErrOrderNotFound is returned by repositories for unknown order numbers.
	ErrOrderNotFound = errors.New("order not found")
	// ErrAlreadyInvoiced guards a successful outcome from being overwritten
	// by a different one.
	ErrAlreadyInvoiced = errors.New("order already invoiced")
)

// OrderRepository is the port for persistence.
type OrderRepository interface {
	// Save inserts the order; it reports false when the order number exists.
	Save(ctx context.Context, order *domain.Order) (bool, error)
	FindByNumber(ctx context.Context, number domain.OrderNumber) (*domain.Order, error)
	// FindPending returns never-attempted and failed orders, oldest first.
	FindPending(ctx context.Context, filter PendingFilter) ([]*domain.Order, error)
	// UpdateOutcome stores the processing fields of order. Writing the
	// stored success again is a no-op.
	UpdateOutcome(ctx context.Context, order *domain.Order) error
	MaxVoucherNumber(ctx context.Context, pointOfSale int, invoiceType domain.InvoiceType) (int64, error)
	Summary(ctx context.Context) (*OrderSummary, error)
}

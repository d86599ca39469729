// Package domain holds the P2P order and invoice model: value objects,
// eligibility rules and invoice-date compliance.
package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// TradeType is the direction of the trade from the account owner's side
type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

func (t TradeType) Valid() bool {
	return t == TradeBuy || t == TradeSell
}

// ProcessingStatus represents where an order is in its invoicing lifecycle
type ProcessingStatus string

const (
	StatusUnprocessed ProcessingStatus = "UNPROCESSED"
	StatusSuccess     ProcessingStatus = "SUCCESS"
	StatusFailure     ProcessingStatus = "FAILURE"
)

// ProcessingMethod records how the authorization code was obtained
type ProcessingMethod string

const (
	MethodAutomatic ProcessingMethod = "automatic"
	MethodManual    ProcessingMethod = "manual"
)

func (m ProcessingMethod) Valid() bool {
	return m == MethodAutomatic || m == MethodManual
}

// Eligibility is the outcome of the pipeline entry predicate
type Eligibility string

const (
	Eligible        Eligibility = "ELIGIBLE"
	NotReady        Eligibility = "NOT_READY"
	WrongDirection  Eligibility = "WRONG_DIRECTION"
	AlreadyInvoiced Eligibility = "ALREADY_INVOICED"
	// AwaitingReconciliation holds orders the authority approved without a
	// usable answer. Only a manual invoice clears them.
	AwaitingReconciliation Eligibility = "AWAITING_RECONCILIATION"
)

// Outcome is the processing state attached to an order. The zero value is
// the unprocessed state.
type Outcome struct {
	Status            ProcessingStatus
	ProcessedAt       time.Time
	Method            ProcessingMethod
	AuthorizationCode AuthorizationCode
	VoucherNumber     int64
	InvoiceDate       time.Time
	PointOfSale       int
	InvoiceType       InvoiceType
	ErrorMessage      string
}

// FailureKind returns the kind recorded with a failed outcome.
func (o Outcome) FailureKind() (FailureKind, bool) {
	if o.Status != StatusFailure {
		return "", false
	}
	return ParseFailureKind(o.ErrorMessage)
}

func (o Outcome) status() ProcessingStatus {
	if o.Status == "" {
		return StatusUnprocessed
	}
	return o.Status
}

// OrderParams carries the trade attributes used to create an Order
type OrderParams struct {
	Number       OrderNumber
	TradeType    TradeType
	Asset        string
	Fiat         Currency
	Quantity     decimal.Decimal
	UnitPrice    Money
	Total        Money
	Commission   decimal.Decimal
	Counterparty string
	CreatedAt    time.Time
}

// Order is an immutable snapshot of one P2P trade. State changes return a
// new Order.
type Order struct {
	number       OrderNumber
	tradeType    TradeType
	asset        string
	fiat         Currency
	quantity     decimal.Decimal
	unitPrice    Money
	total        Money
	commission   decimal.Decimal
	counterparty string
	createdAt    time.Time
	orderDate    time.Time
	outcome      Outcome
}

func NewOrder(p OrderParams) (*Order, error) {
	if p.Number == "" {
		return nil, NewInvalidOrderError("order number is required")
	}
	if !p.TradeType.Valid() {
		return nil, NewInvalidOrderError("trade type must be BUY or SELL, got " + string(p.TradeType))
	}
	if p.Asset == "" {
		return nil, NewInvalidOrderError("asset is required")
	}
	if !p.Quantity.IsPositive() {
		return nil, NewInvalidOrderError("quantity must be positive")
	}
	if !p.UnitPrice.IsPositive() {
		return nil, NewInvalidOrderError("unit price must be positive")
	}
	if !p.Total.IsPositive() {
		return nil, NewInvalidOrderError("total must be positive")
	}
	if p.Total.Currency() != p.Fiat || p.UnitPrice.Currency() != p.Fiat {
		return nil, NewInvalidOrderError("price and total must be in the fiat currency")
	}
	if p.CreatedAt.IsZero() {
		return nil, NewInvalidOrderError("creation time is required")
	}

	return &Order{
		number:       p.Number,
		tradeType:    p.TradeType,
		asset:        p.Asset,
		fiat:         p.Fiat,
		quantity:     p.Quantity,
		unitPrice:    p.UnitPrice,
		total:        p.Total,
		commission:   p.Commission,
		counterparty: p.Counterparty,
		createdAt:    p.CreatedAt,
		orderDate:    CalendarDate(p.CreatedAt),
	}, nil
}

// Reconstitute rebuilds an order loaded from storage with its outcome.
func Reconstitute(p OrderParams, outcome Outcome) (*Order, error) {
	o, err := NewOrder(p)
	if err != nil {
		return nil, err
	}
	if outcome.Method != "" && !outcome.Method.Valid() {
		return nil, NewInvalidOrderError("unknown processing method " + string(outcome.Method))
	}
	o.outcome = outcome
	return o, nil
}

func (o *Order) Number() OrderNumber         { return o.number }
func (o *Order) TradeType() TradeType        { return o.tradeType }
func (o *Order) Asset() string               { return o.asset }
func (o *Order) Fiat() Currency              { return o.fiat }
func (o *Order) Quantity() decimal.Decimal   { return o.quantity }
func (o *Order) UnitPrice() Money            { return o.unitPrice }
func (o *Order) Total() Money                { return o.total }
func (o *Order) Commission() decimal.Decimal { return o.commission }
func (o *Order) Counterparty() string        { return o.counterparty }
func (o *Order) CreatedAt() time.Time        { return o.createdAt }
func (o *Order) OrderDate() time.Time        { return o.orderDate }
func (o *Order) Outcome() Outcome            { return o.outcome }
func (o *Order) Status() ProcessingStatus    { return o.outcome.status() }

func (o *Order) IsInvoiced() bool {
	return o.Status() == StatusSuccess
}

// Eligibility evaluates the pipeline entry predicate against now.
func (o *Order) Eligibility(now time.Time) Eligibility {
	switch {
	case o.tradeType != TradeSell:
		return WrongDirection
	case o.IsInvoiced():
		return AlreadyInvoiced
	case o.awaitingReconciliation():
		return AwaitingReconciliation
	case DaysBetween(o.orderDate, now) > EligibilityWindowDays:
		return NotReady
	default:
		return Eligible
	}
}

func (o *Order) awaitingReconciliation() bool {
	kind, ok := o.outcome.FailureKind()
	return ok && kind == FailureUnconfirmed
}

func (o *Order) IsEligible(now time.Time) bool {
	return o.Eligibility(now) == Eligible
}

// MarkSucceeded returns a copy of the order in the success state.
func (o *Order) MarkSucceeded(
	code AuthorizationCode,
	voucherNumber int64,
	invoiceDate time.Time,
	method ProcessingMethod,
	processedAt time.Time,
) (*Order, error) {
	if err := o.canTransitionTo(StatusSuccess); err != nil {
		return nil, err
	}
	if code.IsZero() {
		return nil, NewInvalidOrderError("authorization code is required")
	}
	if !method.Valid() {
		return nil, NewInvalidOrderError("unknown processing method " + string(method))
	}
	if method == MethodAutomatic && voucherNumber <= 0 {
		return nil, NewInvalidOrderError("voucher number is required")
	}
	if invoiceDate.IsZero() {
		return nil, NewInvalidOrderError("invoice date is required")
	}

	next := *o
	next.outcome = Outcome{
		Status:            StatusSuccess,
		ProcessedAt:       processedAt,
		Method:            method,
		AuthorizationCode: code,
		VoucherNumber:     voucherNumber,
		InvoiceDate:       CalendarDate(invoiceDate),
		PointOfSale:       o.outcome.PointOfSale,
		InvoiceType:       o.outcome.InvoiceType,
	}
	return &next, nil
}

// MarkFailed returns a copy of the order in the failure state.
func (o *Order) MarkFailed(message string, method ProcessingMethod, processedAt time.Time) (*Order, error) {
	if err := o.canTransitionTo(StatusFailure); err != nil {
		return nil, err
	}
	if message == "" {
		return nil, NewInvalidOrderError("failure message is required")
	}
	next := *o
	next.outcome = Outcome{
		Status:       StatusFailure,
		ProcessedAt:  processedAt,
		Method:       method,
		ErrorMessage: message,
		PointOfSale:  o.outcome.PointOfSale,
		InvoiceType:  o.outcome.InvoiceType,
	}
	return &next, nil
}

// WithVoucherSeries returns a copy recording which sequence the outcome
// belongs to. Later transitions keep it.
func (o *Order) WithVoucherSeries(pointOfSale int, invoiceType InvoiceType) *Order {
	next := *o
	next.outcome.PointOfSale = pointOfSale
	next.outcome.InvoiceType = invoiceType
	return &next
}

// Unprocessed -> Success | Failure; Failure -> Success | Failure.
func (o *Order) canTransitionTo(target ProcessingStatus) error {
	switch o.Status() {
	case StatusUnprocessed, StatusFailure:
		return o.allow(target, StatusSuccess, StatusFailure)
	}
	return NewInvalidTransitionError(o.Status(), target)
}

func (o *Order) allow(target ProcessingStatus, allowed ...ProcessingStatus) error {
	if slices.Contains(allowed, target) {
		return nil
	}
	return NewInvalidTransitionError(o.Status(), target)
}

// ApplyResult converts an automatic submission result into the next order
// snapshot.
func (o *Order) ApplyResult(r InvoiceResult, processedAt time.Time) (*Order, error) {
	if r.Succeeded() {
		return o.MarkSucceeded(r.AuthorizationCode(), r.VoucherNumber(), r.InvoiceDate(), MethodAutomatic, processedAt)
	}
	next, err := o.MarkFailed(r.ErrorMessage(), MethodAutomatic, processedAt)
	if err != nil {
		return nil, err
	}
	if r.FailureKind() == FailureUnconfirmed {
		next.outcome.VoucherNumber = r.VoucherNumber()
	}
	return next, nil
}

package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceType is the authority's voucher type code (1 = A, 6 = B, 11 = C).
type InvoiceType int

const (
	InvoiceTypeA InvoiceType = 1
	InvoiceTypeB InvoiceType = 6
	InvoiceTypeC InvoiceType = 11
)

func (t InvoiceType) Valid() bool {
	return t == InvoiceTypeA || t == InvoiceTypeB || t == InvoiceTypeC
}

func (t InvoiceType) String() string {
	switch t {
	case InvoiceTypeA:
		return "A"
	case InvoiceTypeB:
		return "B"
	case InvoiceTypeC:
		return "C"
	}
	return fmt.Sprintf("type-%d", int(t))
}

// Concept classifies what is being invoiced.
type Concept int

const (
	ConceptGoods    Concept = 1
	ConceptServices Concept = 2
	ConceptBoth     Concept = 3
)

func (c Concept) Valid() bool {
	return c >= ConceptGoods && c <= ConceptBoth
}

// MaxBackdateDays returns how many days in the past an invoice of this
// concept may be dated.
func (c Concept) MaxBackdateDays() int {
	if c == ConceptGoods {
		return 5
	}
	return 10
}

// IncludesServices is true when a service period must be declared.
func (c Concept) IncludesServices() bool {
	return c == ConceptServices || c == ConceptBoth
}

// AmountTolerance bounds |net + tax - total|.
var AmountTolerance = decimal.New(1, -2)

// InvoiceSpec is the issuer-side configuration applied to every invoice.
type InvoiceSpec struct {
	PointOfSale int
	InvoiceType InvoiceType
	Concept     Concept
	// VATRate in percent; zero for type C invoices.
	VATRate decimal.Decimal
	Buyer   *TaxID
}

func (s InvoiceSpec) Validate() error {
	if s.PointOfSale <= 0 {
		return NewInvalidInvoiceError("point of sale must be positive")
	}
	if !s.InvoiceType.Valid() {
		return NewInvalidInvoiceError(fmt.Sprintf("unsupported invoice type %d", s.InvoiceType))
	}
	if !s.Concept.Valid() {
		return NewInvalidInvoiceError(fmt.Sprintf("unsupported concept %d", s.Concept))
	}
	if s.VATRate.IsNegative() {
		return NewInvalidInvoiceError("vat rate cannot be negative")
	}
	if s.InvoiceType == InvoiceTypeC && !s.VATRate.IsZero() {
		return NewInvalidInvoiceError("type C invoices do not carry vat")
	}
	return nil
}

// Invoice is built from an order right before submission and is never
// persisted on its own.
type Invoice struct {
	orderNumber OrderNumber
	pointOfSale int
	invoiceType InvoiceType
	concept     Concept
	net         Money
	tax         Money
	total       Money
	date        time.Time
	buyer       *TaxID
	serviceFrom time.Time
	serviceTo   time.Time
	paymentDue  time.Time
}

// InvoiceParams is the raw input to NewInvoice
type InvoiceParams struct {
	OrderNumber OrderNumber
	PointOfSale int
	InvoiceType InvoiceType
	Concept     Concept
	Net         Money
	Tax         Money
	Total       Money
	Date        time.Time
	Buyer       *TaxID
	ServiceFrom time.Time
	ServiceTo   time.Time
	PaymentDue  time.Time
}

func NewInvoice(p InvoiceParams, now time.Time) (*Invoice, error) {
	inv := &Invoice{
		orderNumber: p.OrderNumber,
		pointOfSale: p.PointOfSale,
		invoiceType: p.InvoiceType,
		concept:     p.Concept,
		net:         p.Net,
		tax:         p.Tax,
		total:       p.Total,
		date:        CalendarDate(p.Date),
		buyer:       p.Buyer,
	}
	if p.Concept.IncludesServices() {
		inv.serviceFrom = defaultDate(p.ServiceFrom, inv.date)
		inv.serviceTo = defaultDate(p.ServiceTo, inv.date)
		inv.paymentDue = defaultDate(p.PaymentDue, inv.date)
	}
	if err := inv.Validate(now); err != nil {
		return nil, err
	}
	return inv, nil
}

// NewInvoiceFromOrder derives the invoice for order. The invoice date is
// clamped to the concept's backdating window; the order total is split into net and VAT using
// spec.VATRate.
func NewInvoiceFromOrder(order *Order, spec InvoiceSpec, now time.Time) (*Invoice, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	total := order.Total()
	net := total
	tax := ZeroMoney(total.Currency())
	if spec.VATRate.IsPositive() {
		divisor := decimal.NewFromInt(1).Add(spec.VATRate.Div(decimal.NewFromInt(100)))
		var err error
		if net, err = total.Divide(divisor); err != nil {
			return nil, err
		}
		if tax, err = total.Subtract(net); err != nil {
			return nil, err
		}
	}

	return NewInvoice(InvoiceParams{
		OrderNumber: order.Number(),
		PointOfSale: spec.PointOfSale,
		InvoiceType: spec.InvoiceType,
		Concept:     spec.Concept,
		Net:         net,
		Tax:         tax,
		Total:       total,
		Date:        CalculateInvoiceDateWithin(order.CreatedAt(), now, spec.Concept.MaxBackdateDays()),
		Buyer:       spec.Buyer,
	}, now)
}

// Validate checks amount consistency and the backdating window against now.
func (i *Invoice) Validate(now time.Time) error {
	if i.orderNumber == "" {
		return NewInvalidInvoiceError("order number is required")
	}
	if i.pointOfSale <= 0 {
		return NewInvalidInvoiceError("point of sale must be positive")
	}
	if !i.invoiceType.Valid() {
		return NewInvalidInvoiceError(fmt.Sprintf("unsupported invoice type %d", i.invoiceType))
	}
	if !i.concept.Valid() {
		return NewInvalidInvoiceError(fmt.Sprintf("unsupported concept %d", i.concept))
	}
	if !i.total.IsPositive() {
		return NewInvalidAmountError("invoice total must be positive")
	}
	if i.net.IsNegative() || i.tax.IsNegative() {
		return NewInvalidAmountError("net and tax cannot be negative")
	}

	sum, err := i.net.Add(i.tax)
	if err != nil {
		return err
	}
	ok, err := sum.ApproxEqual(i.total, AmountTolerance)
	if err != nil {
		return err
	}
	if !ok {
		return NewAmountInconsistentError(i.net, i.tax, i.total)
	}

	maxDays := i.concept.MaxBackdateDays()
	age := DaysBetween(i.date, now)
	if age < 0 || age > maxDays {
		return NewInvoiceDateOutOfRangeError(i.date.Format(time.DateOnly), maxDays)
	}

	if i.concept.IncludesServices() {
		if i.serviceTo.Before(i.serviceFrom) {
			return NewInvalidInvoiceError("service period ends before it starts")
		}
		if i.paymentDue.Before(i.date) {
			return NewInvalidInvoiceError("payment due date precedes invoice date")
		}
	}
	return nil
}

func (i *Invoice) OrderNumber() OrderNumber { return i.orderNumber }
func (i *Invoice) PointOfSale() int         { return i.pointOfSale }
func (i *Invoice) InvoiceType() InvoiceType { return i.invoiceType }
func (i *Invoice) Concept() Concept         { return i.concept }
func (i *Invoice) Net() Money               { return i.net }
func (i *Invoice) Tax() Money               { return i.tax }
func (i *Invoice) Total() Money             { return i.total }
func (i *Invoice) Date() time.Time          { return i.date }
func (i *Invoice) Buyer() *TaxID            { return i.buyer }
func (i *Invoice) ServiceFrom() time.Time   { return i.serviceFrom }
func (i *Invoice) ServiceTo() time.Time     { return i.serviceTo }
func (i *Invoice) PaymentDue() time.Time    { return i.paymentDue }

func defaultDate(v, fallback time.Time) time.Time {
	if v.IsZero() {
		return fallback
	}
	return CalendarDate(v)
}

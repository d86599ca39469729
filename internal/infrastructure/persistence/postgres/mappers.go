package postgres

import (
	"fmt"
	"time"

	"github.com/DanielPopoola/p2p-invoicing/internal/domain"
	"github.com/shopspring/decimal"
)

// toDomainModel: maps db model to domain entity
func toDomainModel(m OrderModel) (*domain.Order, error) {
	fiat := domain.Currency(m.Fiat)

	quantity, err := decimal.NewFromString(m.Quantity)
	if err != nil {
		return nil, fmt.Errorf("order %s: quantity: %w", m.OrderNumber, err)
	}
	commission, err := decimal.NewFromString(m.Commission)
	if err != nil {
		return nil, fmt.Errorf("order %s: commission: %w", m.OrderNumber, err)
	}
	unitPrice, err := domain.NewMoneyFromString(m.UnitPrice, fiat)
	if err != nil {
		return nil, fmt.Errorf("order %s: unit price: %w", m.OrderNumber, err)
	}
	total, err := domain.NewMoneyFromString(m.TotalPrice, fiat)
	if err != nil {
		return nil, fmt.Errorf("order %s: total: %w", m.OrderNumber, err)
	}

	outcome, err := toOutcome(m)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", m.OrderNumber, err)
	}

	return domain.Reconstitute(domain.OrderParams{
		Number:       domain.OrderNumber(m.OrderNumber),
		TradeType:    domain.TradeType(m.TradeType),
		Asset:        m.Asset,
		Fiat:         fiat,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		Total:        total,
		Commission:   commission,
		Counterparty: m.Counterparty,
		CreatedAt:    m.CreatedAt,
	}, outcome)
}

func toOutcome(m OrderModel) (domain.Outcome, error) {
	if m.Success == nil {
		return domain.Outcome{}, nil
	}

	out := domain.Outcome{
		Status:        domain.StatusFailure,
		ProcessedAt:   deref(m.ProcessedAt),
		Method:        domain.ProcessingMethod(deref(m.ProcessingMethod)),
		VoucherNumber: deref(m.VoucherNumber),
		InvoiceDate:   calendarDate(m.InvoiceDate),
		PointOfSale:   int(deref(m.PointOfSale)),
		InvoiceType:   domain.InvoiceType(deref(m.InvoiceType)),
		ErrorMessage:  deref(m.ErrorMessage),
	}
	if *m.Success {
		out.Status = domain.StatusSuccess
	}

	if code := deref(m.AuthorizationCode); code != "" {
		ac, err := domain.NewAuthorizationCode(code, calendarDate(m.CAEExpiration))
		if err != nil {
			return domain.Outcome{}, err
		}
		out.AuthorizationCode = ac
	}

	return out, nil
}

// toDBModel: maps domain entity to db model
func toDBModel(o *domain.Order) OrderModel {
	m := OrderModel{
		OrderNumber:  o.Number().String(),
		TradeType:    string(o.TradeType()),
		Asset:        o.Asset(),
		Fiat:         string(o.Fiat()),
		Quantity:     o.Quantity().String(),
		UnitPrice:    o.UnitPrice().Amount().StringFixed(domain.MoneyPrecision),
		TotalPrice:   o.Total().Amount().StringFixed(domain.MoneyPrecision),
		Commission:   o.Commission().String(),
		Counterparty: o.Counterparty(),
		CreatedAt:    o.CreatedAt(),
	}

	out := o.Outcome()
	if o.Status() == domain.StatusUnprocessed {
		return m
	}

	success := o.Status() == domain.StatusSuccess
	m.Success = &success
	m.ProcessedAt = nonZeroTime(out.ProcessedAt)
	m.ProcessingMethod = nonEmpty(string(out.Method))
	m.AuthorizationCode = nonEmpty(out.AuthorizationCode.String())
	m.CAEExpiration = nonZeroTime(out.AuthorizationCode.ExpiresOn())
	m.InvoiceDate = nonZeroTime(out.InvoiceDate)
	m.ErrorMessage = nonEmpty(out.ErrorMessage)
	if out.VoucherNumber > 0 {
		m.VoucherNumber = &out.VoucherNumber
	}
	if out.PointOfSale > 0 {
		pos := int32(out.PointOfSale)
		typ := int32(out.InvoiceType)
		m.PointOfSale = &pos
		m.InvoiceType = &typ
	}
	return m
}

// calendarDate re-anchors a DATE column, which pgx returns at UTC midnight,
// to the same calendar day in the invoicing timezone.
func calendarDate(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, domain.InvoicingLocation)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonZeroTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 (or exchange asset) code
type Currency string

const (
	ARS  Currency = "ARS"
	USD  Currency = "USD"
	USDT Currency = "USDT"
)

// MoneyPrecision is the number of decimal places every Money value carries.
const MoneyPrecision int32 = 2

// Money is an immutable amount in a single currency. All operations return
// new values rounded to MoneyPrecision.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a Money rounded to two decimal places.
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(string(currency))))
	if c == "" {
		return Money{}, NewInvalidAmountError("currency is required")
	}
	return Money{amount: amount.Round(MoneyPrecision), currency: c}, nil
}

// NewMoneyFromString parses amount as a decimal string.
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, &DomainError{
			Code:    ErrCodeInvalidAmount,
			Message: fmt.Sprintf("invalid amount %q", amount),
			Err:     err,
		}
	}
	return NewMoney(d, currency)
}

// NewMoneyFromFloat creates Money from a float64 value
func NewMoneyFromFloat(amount float64, currency Currency) (Money, error) {
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

// MustMoney is NewMoneyFromString for literals known to be valid.
func MustMoney(amount string, currency Currency) Money {
	m, err := NewMoneyFromString(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// ZeroMoney returns a zero amount in currency
func ZeroMoney(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsPositive() bool        { return m.amount.IsPositive() }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }

func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, NewCurrencyMismatchError("add", m.currency, other.currency)
	}
	return m.with(m.amount.Add(other.amount)), nil
}

func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, NewCurrencyMismatchError("subtract", m.currency, other.currency)
	}
	return m.with(m.amount.Sub(other.amount)), nil
}

func (m Money) Multiply(factor decimal.Decimal) Money {
	return m.with(m.amount.Mul(factor))
}

// Divide returns an error when divisor is zero
func (m Money) Divide(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, &DomainError{
			Code:    ErrCodeDivisionByZero,
			Message: fmt.Sprintf("cannot divide %s by zero", m),
		}
	}
	return m.with(m.amount.Div(divisor)), nil
}

// Percentage returns percent% of m (21 means 21%).
func (m Money) Percentage(percent decimal.Decimal) Money {
	return m.with(m.amount.Mul(percent).Div(decimal.NewFromInt(100)))
}

// ConvertTo converts m using rate units of target per unit of m's currency.
func (m Money) ConvertTo(target Currency, rate decimal.Decimal) (Money, error) {
	if !rate.IsPositive() {
		return Money{}, NewInvalidAmountError(fmt.Sprintf("conversion rate must be positive, got %s", rate))
	}
	return NewMoney(m.amount.Mul(rate), target)
}

func (m Money) Abs() Money    { return m.with(m.amount.Abs()) }
func (m Money) Negate() Money { return m.with(m.amount.Neg()) }

// Compare returns -1, 0 or 1. Comparing different currencies is an error.
func (m Money) Compare(other Money) (int, error) {
	if m.currency != other.currency {
		return 0, NewCurrencyMismatchError("compare", m.currency, other.currency)
	}
	return m.amount.Cmp(other.amount), nil
}

func (m Money) LessThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c < 0, err
}

func (m Money) GreaterThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c > 0, err
}

// Equals is true only for the same currency and amount
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// ApproxEqual reports whether both amounts differ by at most tolerance.
func (m Money) ApproxEqual(other Money, tolerance decimal.Decimal) (bool, error) {
	diff, err := m.Subtract(other)
	if err != nil {
		return false, err
	}
	return diff.amount.Abs().LessThanOrEqual(tolerance), nil
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(MoneyPrecision), m.currency)
}

// StringFixed returns the amount only, with two decimals.
func (m Money) StringFixed() string {
	return m.amount.StringFixed(MoneyPrecision)
}

func (m Money) with(amount decimal.Decimal) Money {
	return Money{amount: amount.Round(MoneyPrecision), currency: m.currency}
}

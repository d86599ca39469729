package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business rule violation
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same code, so the sentinels below
// work with errors.Is regardless of the message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

const (
	ErrCodeInvalidAmount            = "INVALID_AMOUNT"
	ErrCodeCurrencyMismatch         = "CURRENCY_MISMATCH"
	ErrCodeDivisionByZero           = "DIVISION_BY_ZERO"
	ErrCodeInvalidTaxID             = "INVALID_TAX_ID"
	ErrCodeInvalidAuthorizationCode = "INVALID_AUTHORIZATION_CODE"
	ErrCodeInvalidOrderNumber       = "INVALID_ORDER_NUMBER"
	ErrCodeInvalidOrder             = "INVALID_ORDER"
	ErrCodeInvalidInvoice           = "INVALID_INVOICE"
	ErrCodeInvoiceDateOutOfRange    = "INVOICE_DATE_OUT_OF_RANGE"
	ErrCodeAmountInconsistent       = "AMOUNT_INCONSISTENT"
	ErrCodeInvalidTransition        = "INVALID_TRANSITION"
	ErrCodeInvalidResult            = "INVALID_RESULT"
)

var (
	ErrInvalidAmount            = &DomainError{Code: ErrCodeInvalidAmount, Message: "invalid amount"}
	ErrCurrencyMismatch         = &DomainError{Code: ErrCodeCurrencyMismatch, Message: "currency mismatch"}
	ErrDivisionByZero           = &DomainError{Code: ErrCodeDivisionByZero, Message: "division by zero"}
	ErrInvalidTaxID             = &DomainError{Code: ErrCodeInvalidTaxID, Message: "invalid tax id"}
	ErrInvalidAuthorizationCode = &DomainError{Code: ErrCodeInvalidAuthorizationCode, Message: "invalid authorization code"}
	ErrInvalidOrderNumber       = &DomainError{Code: ErrCodeInvalidOrderNumber, Message: "invalid order number"}
	ErrInvalidOrder             = &DomainError{Code: ErrCodeInvalidOrder, Message: "invalid order"}
	ErrInvalidInvoice           = &DomainError{Code: ErrCodeInvalidInvoice, Message: "invalid invoice"}
	ErrInvoiceDateOutOfRange    = &DomainError{Code: ErrCodeInvoiceDateOutOfRange, Message: "invoice date out of range"}
	ErrAmountInconsistent       = &DomainError{Code: ErrCodeAmountInconsistent, Message: "amounts are inconsistent"}
	ErrInvalidTransition        = &DomainError{Code: ErrCodeInvalidTransition, Message: "invalid transition"}
	ErrInvalidResult            = &DomainError{Code: ErrCodeInvalidResult, Message: "invalid invoice result"}
)

func NewInvalidAmountError(reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("invalid amount: %s", reason),
	}
}

func NewCurrencyMismatchError(op string, a, b Currency) *DomainError {
	return &DomainError{
		Code:    ErrCodeCurrencyMismatch,
		Message: fmt.Sprintf("cannot %s money with different currencies: %s and %s", op, a, b),
	}
}

func NewInvalidTaxIDError(value, reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTaxID,
		Message: fmt.Sprintf("invalid tax id %q: %s", value, reason),
	}
}

func NewInvalidAuthorizationCodeError(value, reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAuthorizationCode,
		Message: fmt.Sprintf("invalid authorization code %q: %s", value, reason),
	}
}

func NewInvalidOrderNumberError(value, reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidOrderNumber,
		Message: fmt.Sprintf("invalid order number %q: %s", value, reason),
	}
}

func NewInvalidOrderError(reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidOrder,
		Message: fmt.Sprintf("invalid order: %s", reason),
	}
}

func NewInvalidInvoiceError(reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidInvoice,
		Message: fmt.Sprintf("invalid invoice: %s", reason),
	}
}

func NewInvoiceDateOutOfRangeError(date string, maxDays int) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvoiceDateOutOfRange,
		Message: fmt.Sprintf("invoice date %s must be between %d days ago and today", date, maxDays),
	}
}

func NewAmountInconsistentError(net, tax, total Money) *DomainError {
	return &DomainError{
		Code:    ErrCodeAmountInconsistent,
		Message: fmt.Sprintf("net %s + tax %s does not match total %s", net, tax, total),
	}
}

func NewInvalidTransitionError(from, to ProcessingStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

func NewInvalidResultError(reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidResult,
		Message: fmt.Sprintf("invalid invoice result: %s", reason),
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// IsValidationError reports whether err is a local rule violation that must
// never reach the authority.
func IsValidationError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

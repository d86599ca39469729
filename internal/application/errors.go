package application

import (
	"errors"
	"fmt"
)

// APPLICATION-LEVEL ERRORS (Orchestration)

type ServiceError struct {
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeConfiguration  = "CONFIGURATION_ERROR"
	ErrCodePersistence    = "PERSISTENCE_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeInternal       = "INTERNAL_ERROR"
	ErrCodeReconciliation = "RECONCILIATION_REQUIRED"
)

// NewConfigurationError marks a problem that must abort a batch before any
// order is attempted.
func NewConfigurationError(err error) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeConfiguration,
		Message: "invalid invoicing configuration",
		Err:     err,
	}
}

func NewPersistenceError(orderNumber string, err error) *ServiceError {
	return &ServiceError{
		Code:    ErrCodePersistence,
		Message: fmt.Sprintf("failed to persist result for order %s", orderNumber),
		Err:     err,
	}
}

// NewReconciliationError flags an order the authority approved as voucher
// without a recordable answer. It needs a manual invoice.
func NewReconciliationError(orderNumber string, voucher int64, err error) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeReconciliation,
		Message: fmt.Sprintf("order %s approved as voucher %d needs manual reconciliation", orderNumber, voucher),
		Err:     err,
	}
}

func NewNotFoundError(orderNumber string) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("order %s not found", orderNumber),
	}
}

func NewInvalidInputError(err error) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeInvalidInput,
		Message: "invalid input",
		Err:     err,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeInternal,
		Message: "an internal error occurred",
		Err:     err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}

// GatewayError is a non-success answer from the invoicing gateway or the
// exchange API at the HTTP level.
type GatewayError struct {
	Code       string
	Message    string
	StatusCode int
}

// GatewayErrorResponse is the JSON error body both remote services return.
type GatewayErrorResponse struct {
	Err     string `json:"error"`
	Message string `json:"message"`
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

// IsRetryable is true for server-side and rate limiting failures.
func (e *GatewayError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

func IsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	ok := errors.As(err, &gwErr)
	return gwErr, ok
}

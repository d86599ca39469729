package application

import (
	"context"
	"errors"
	"net"

	"github.com/DanielPopoola/p2p-invoicing/internal/domain"
)

// CategorizeError maps an error raised on the submission path to the closed
// set of failure kinds. Anything that is not a local rule violation is a
// transport failure and stays eligible for the next run.
func CategorizeError(err error) domain.FailureKind {
	if err == nil {
		return ""
	}

	if domain.IsValidationError(err) {
		return domain.FailureValidation
	}

	if svcErr, ok := IsServiceError(err); ok && svcErr.Code == ErrCodeInvalidInput {
		return domain.FailureValidation
	}

	return domain.FailureTransport
}

// IsRetryable decides whether a transport call may be repeated immediately.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if gwErr, ok := IsGatewayError(err); ok {
		return gwErr.IsRetryable()
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// ToErrorCode gives a stable code for logs and CLI output
func ToErrorCode(err error) string {
	if err == nil {
		return ""
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}

	if gwErr, ok := IsGatewayError(err); ok {
		return "GATEWAY_" + gwErr.Code
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "TIMEOUT"
	}

	return ErrCodeInternal
}

package domain

import (
	"strings"
	"time"
)

// FailureKind is the closed set of reasons a submission attempt can fail.
type FailureKind string

const (
	// FailureValidation is a local rule violation detected before any network call.
	FailureValidation FailureKind = "VALIDATION"
	// FailureAuthorityRejection means the authority answered and refused the invoice.
	FailureAuthorityRejection FailureKind = "AUTHORITY_REJECTION"
	// FailureTransport covers network, authentication and availability problems.
	FailureTransport FailureKind = "TRANSPORT"
	// FailureUnconfirmed means the authority approved the invoice but the
	// answer could not be recorded. The voucher is consumed remotely.
	FailureUnconfirmed FailureKind = "UNCONFIRMED"
)

// Retryable reports whether re-running the pipeline later may succeed
// without changing the order data.
func (k FailureKind) Retryable() bool {
	return k == FailureTransport
}

// InvoiceResult is the outcome of one submission attempt: either an
// authorization or a failure with at least one message.
type InvoiceResult struct {
	success       bool
	code          AuthorizationCode
	voucherNumber int64
	invoiceDate   time.Time
	failureKind   FailureKind
	messages      []string
}

func NewSuccessResult(code AuthorizationCode, voucherNumber int64, invoiceDate time.Time) (InvoiceResult, error) {
	if code.IsZero() {
		return InvoiceResult{}, NewInvalidResultError("authorization code is required")
	}
	if voucherNumber <= 0 {
		return InvoiceResult{}, NewInvalidResultError("voucher number is required")
	}
	if invoiceDate.IsZero() {
		return InvoiceResult{}, NewInvalidResultError("invoice date is required")
	}
	return InvoiceResult{
		success:       true,
		code:          code,
		voucherNumber: voucherNumber,
		invoiceDate:   CalendarDate(invoiceDate),
	}, nil
}

func NewFailureResult(kind FailureKind, messages ...string) (InvoiceResult, error) {
	switch kind {
	case FailureValidation, FailureAuthorityRejection, FailureTransport, FailureUnconfirmed:
	default:
		return InvoiceResult{}, NewInvalidResultError("unknown failure kind " + string(kind))
	}
	var msgs []string
	for _, m := range messages {
		if m = strings.TrimSpace(m); m != "" {
			msgs = append(msgs, m)
		}
	}
	if len(msgs) == 0 {
		return InvoiceResult{}, NewInvalidResultError("failure requires at least one message")
	}
	return InvoiceResult{failureKind: kind, messages: msgs}, nil
}

// NewUnconfirmedResult records an approval that cannot be stored as a
// success, keeping the voucher the authority consumed.
func NewUnconfirmedResult(voucherNumber int64, messages ...string) (InvoiceResult, error) {
	r, err := NewFailureResult(FailureUnconfirmed, messages...)
	if err != nil {
		return InvoiceResult{}, err
	}
	r.voucherNumber = voucherNumber
	return r, nil
}

func (r InvoiceResult) Succeeded() bool                      { return r.success }
func (r InvoiceResult) AuthorizationCode() AuthorizationCode { return r.code }
func (r InvoiceResult) VoucherNumber() int64                 { return r.voucherNumber }
func (r InvoiceResult) InvoiceDate() time.Time               { return r.invoiceDate }
func (r InvoiceResult) FailureKind() FailureKind             { return r.failureKind }

// Messages returns a copy of the failure messages.
func (r InvoiceResult) Messages() []string {
	return append([]string(nil), r.messages...)
}

// ErrorMessage joins the failure messages for storage.
func (r InvoiceResult) ErrorMessage() string {
	if r.success {
		return ""
	}
	return "[" + string(r.failureKind) + "] " + strings.Join(r.messages, "; ")
}

// ParseFailureKind extracts the kind prefix written by ErrorMessage.
func ParseFailureKind(message string) (FailureKind, bool) {
	rest, ok := strings.CutPrefix(message, "[")
	if !ok {
		return "", false
	}
	kind, _, ok := strings.Cut(rest, "]")
	if !ok {
		return "", false
	}
	switch k := FailureKind(kind); k {
	case FailureValidation, FailureAuthorityRejection, FailureTransport, FailureUnconfirmed:
		return k, true
	}
	return "", false
}

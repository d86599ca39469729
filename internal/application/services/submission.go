package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/p2p-invoicing/internal/application"
	"github.com/DanielPopoola/p2p-invoicing/internal/domain"
)

// SubmissionOutcome pairs an order with the result of submitting it. Order
// carries the voucher series but is otherwise the unchanged input.
type SubmissionOutcome struct {
	Order  *domain.Order
	Result domain.InvoiceResult
}

// SubmissionService submits invoices one at a time against a single voucher
// sequence. Voucher numbers are only consumed by confirmed successes.
type SubmissionService struct {
	client application.InvoicingClient
	spec   domain.InvoiceSpec
	logger *slog.Logger
}

func NewSubmissionService(
	client application.InvoicingClient,
	spec domain.InvoiceSpec,
	logger *slog.Logger,
) (*SubmissionService, error) {
	if err := spec.Validate(); err != nil {
		return nil, application.NewConfigurationError(err)
	}
	return &SubmissionService{
		client: client,
		spec:   spec,
		logger: logger,
	}, nil
}

func (s *SubmissionService) Spec() domain.InvoiceSpec {
	return s.spec
}

// Submit sends a single order, querying the sequence head first.
func (s *SubmissionService) Submit(ctx context.Context, order *domain.Order, now time.Time) SubmissionOutcome {
	return s.SubmitBatch(ctx, []*domain.Order{order}, now)[0]
}

// SubmitBatch submits orders in input order. A failure never stops the batch
// and never advances the voucher counter, so the next order reuses the same
// candidate number.
func (s *SubmissionService) SubmitBatch(ctx context.Context, orders []*domain.Order, now time.Time) []SubmissionOutcome {
	outcomes := make([]SubmissionOutcome, 0, len(orders))
	if len(orders) == 0 {
		return outcomes
	}

	last, err := s.client.LastVoucherNumber(ctx, s.spec.PointOfSale, s.spec.InvoiceType)
	if err != nil {
		s.logger.Error("failed to query last voucher number",
			"point_of_sale", s.spec.PointOfSale,
			"invoice_type", s.spec.InvoiceType.String(),
			"error", err)

		result := failureResult(domain.FailureTransport, "last voucher number query failed: "+err.Error())
		for _, order := range orders {
			outcomes = append(outcomes, SubmissionOutcome{
				Order:  order.WithVoucherSeries(s.spec.PointOfSale, s.spec.InvoiceType),
				Result: result,
			})
		}
		return outcomes
	}

	s.logger.Info("starting submission batch",
		"orders", len(orders),
		"point_of_sale", s.spec.PointOfSale,
		"invoice_type", s.spec.InvoiceType.String(),
		"last_voucher", last)

	for _, order := range orders {
		order = order.WithVoucherSeries(s.spec.PointOfSale, s.spec.InvoiceType)
		candidate := last + 1

		result, consumed := s.submitOne(ctx, order, candidate, now)
		if consumed > last {
			last = consumed
		}

		outcomes = append(outcomes, SubmissionOutcome{Order: order, Result: result})
	}

	return outcomes
}

// submitOne returns the result and the voucher number the authority
// consumed, or zero when nothing was consumed.
func (s *SubmissionService) submitOne(
	ctx context.Context,
	order *domain.Order,
	candidate int64,
	now time.Time,
) (domain.InvoiceResult, int64) {
	logger := s.logger.With("order_number", order.Number().String(), "voucher_number", candidate)

	inv, err := domain.NewInvoiceFromOrder(order, s.spec, now)
	if err != nil {
		logger.Warn("invoice failed validation", "error", err)
		return failureResult(domain.FailureValidation, err.Error()), 0
	}

	resp, err := s.client.Submit(ctx, application.NewSubmitRequest(inv, candidate))
	if err != nil {
		kind := application.CategorizeError(err)
		logger.Error("invoice submission failed",
			"failure_kind", string(kind),
			"error_code", application.ToErrorCode(err),
			"error", err)
		return failureResult(kind, err.Error()), 0
	}

	if !resp.Approved {
		logger.Warn("invoice rejected by authority", "errors", resp.Errors)
		messages := resp.Errors
		if len(messages) == 0 {
			messages = []string{"rejected without detail"}
		}
		return failureResult(domain.FailureAuthorityRejection, messages...), 0
	}

	voucher := resp.VoucherNumber
	if voucher <= 0 {
		voucher = candidate
	}

	code, err := domain.NewAuthorizationCode(resp.AuthorizationCode, resp.Expiration)
	if err != nil {
		// The authority approved the voucher, so the sequence moved even
		// though the answer cannot be recorded as a success.
		logger.Error("approved response carried an unusable authorization code",
			"authorization_code", resp.AuthorizationCode,
			"confirmed_voucher", voucher,
			"error", err)
		return unconfirmedResult(voucher, resp.AuthorizationCode, err), voucher
	}

	result, err := domain.NewSuccessResult(code, voucher, inv.Date())
	if err != nil {
		logger.Error("failed to build success result", "confirmed_voucher", voucher, "error", err)
		return unconfirmedResult(voucher, resp.AuthorizationCode, err), voucher
	}

	logger.Info("invoice authorized",
		"authorization_code", code.String(),
		"confirmed_voucher", voucher,
		"invoice_date", inv.Date().Format(time.DateOnly))
	return result, voucher
}

func unconfirmedResult(voucher int64, code string, cause error) domain.InvoiceResult {
	msg := fmt.Sprintf("approved as voucher %d with authorization code %q: %v", voucher, code, cause)
	result, err := domain.NewUnconfirmedResult(voucher, msg)
	if err != nil {
		return failureResult(domain.FailureUnconfirmed, msg)
	}
	return result
}

func failureResult(kind domain.FailureKind, messages ...string) domain.InvoiceResult {
	result, err := domain.NewFailureResult(kind, messages...)
	if err != nil {
		result, _ = domain.NewFailureResult(kind, fmt.Sprintf("%s failure", kind))
	}
	return result
}

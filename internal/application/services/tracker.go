package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/DanielPopoola/p2p-invoicing/internal/application"
	"github.com/DanielPopoola/p2p-invoicing/internal/domain"
)

// ManualInvoice is an authorization code obtained outside the pipeline,
// typically through the authority's web portal.
type ManualInvoice struct {
	OrderNumber       string
	AuthorizationCode string
	Expiration        time.Time
	VoucherNumber     int64
	InvoiceDate       time.Time
	PointOfSale       int
	InvoiceType       domain.InvoiceType
}

// OrderTracker is the idempotent record of which orders have been invoiced.
type OrderTracker struct {
	repo   application.OrderRepository
	logger *slog.Logger
}

func NewOrderTracker(repo application.OrderRepository, logger *slog.Logger) *OrderTracker {
	return &OrderTracker{
		repo:   repo,
		logger: logger,
	}
}

// Import stores new orders. Orders whose number is already tracked are
// skipped and keep their processing state.
func (t *OrderTracker) Import(ctx context.Context, orders []*domain.Order) (inserted, skipped int, err error) {
	for _, order := range orders {
		created, err := t.repo.Save(ctx, order)
		if err != nil {
			return inserted, skipped, application.NewPersistenceError(order.Number().String(), err)
		}
		if created {
			inserted++
			continue
		}
		skipped++
	}
	return inserted, skipped, nil
}

// Candidates returns pending orders split into those eligible now and those
// outside the invoicing window. The filter limit bounds the eligible slice.
// Orders awaiting reconciliation are left out of both.
func (t *OrderTracker) Candidates(
	ctx context.Context,
	filter application.PendingFilter,
	now time.Time,
) (eligible, notReady []*domain.Order, err error) {
	pending, err := t.repo.FindPending(ctx, application.PendingFilter{TradeType: filter.TradeType})
	if err != nil {
		return nil, nil, application.NewPersistenceError("pending", err)
	}

	for _, order := range pending {
		switch order.Eligibility(now) {
		case domain.Eligible:
			if filter.Limit > 0 && len(eligible) >= filter.Limit {
				continue
			}
			eligible = append(eligible, order)
		case domain.NotReady:
			notReady = append(notReady, order)
		case domain.AwaitingReconciliation:
			t.logger.Warn("order awaits manual reconciliation",
				"order_number", order.Number().String(),
				"voucher_number", order.Outcome().VoucherNumber)
		}
	}
	return eligible, notReady, nil
}

// IsAlreadyInvoiced is true only when the latest recorded outcome is a
// success. Unknown orders are not invoiced.
func (t *OrderTracker) IsAlreadyInvoiced(ctx context.Context, number domain.OrderNumber) (bool, error) {
	order, err := t.repo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, application.ErrOrderNotFound) {
			return false, nil
		}
		return false, application.NewPersistenceError(number.String(), err)
	}
	return order.IsInvoiced(), nil
}

// ApplyResult records an automatic submission result and returns the new
// snapshot. Applying the stored success again changes nothing.
func (t *OrderTracker) ApplyResult(
	ctx context.Context,
	order *domain.Order,
	result domain.InvoiceResult,
	now time.Time,
) (*domain.Order, error) {
	if order.IsInvoiced() {
		if result.Succeeded() && sameCode(order, result.AuthorizationCode()) {
			return order, nil
		}
		return nil, application.ErrAlreadyInvoiced
	}

	next, err := order.ApplyResult(result, now)
	if err != nil {
		return nil, err
	}

	if err := t.persist(ctx, next); err != nil {
		return next, err
	}
	return next, nil
}

// MarkManual records an externally obtained authorization code. It does not
// touch the voucher sequence bookkeeping.
func (t *OrderTracker) MarkManual(ctx context.Context, m ManualInvoice, now time.Time) (*domain.Order, error) {
	number, err := domain.NewOrderNumber(m.OrderNumber)
	if err != nil {
		return nil, application.NewInvalidInputError(err)
	}
	code, err := domain.NewAuthorizationCode(strings.TrimSpace(m.AuthorizationCode), m.Expiration)
	if err != nil {
		return nil, application.NewInvalidInputError(err)
	}
	if m.InvoiceDate.IsZero() {
		return nil, application.NewInvalidInputError(domain.NewInvalidInvoiceError("invoice date is required"))
	}

	order, err := t.repo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, application.ErrOrderNotFound) {
			return nil, application.NewNotFoundError(number.String())
		}
		return nil, application.NewPersistenceError(number.String(), err)
	}

	if order.IsInvoiced() {
		if sameCode(order, code) {
			return order, nil
		}
		return nil, application.ErrAlreadyInvoiced
	}

	if m.PointOfSale > 0 {
		order = order.WithVoucherSeries(m.PointOfSale, m.InvoiceType)
	}
	next, err := order.MarkSucceeded(code, m.VoucherNumber, m.InvoiceDate, domain.MethodManual, now)
	if err != nil {
		return nil, application.NewInvalidInputError(err)
	}

	if err := t.persist(ctx, next); err != nil {
		return nil, err
	}

	t.logger.Info("manual invoice recorded",
		"order_number", number.String(),
		"authorization_code", code.String())
	return next, nil
}

func (t *OrderTracker) Summary(ctx context.Context) (*application.OrderSummary, error) {
	summary, err := t.repo.Summary(ctx)
	if err != nil {
		return nil, application.NewPersistenceError("summary", err)
	}
	return summary, nil
}

func (t *OrderTracker) persist(ctx context.Context, order *domain.Order) error {
	err := t.repo.UpdateOutcome(ctx, order)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, application.ErrAlreadyInvoiced):
		return err
	case errors.Is(err, application.ErrOrderNotFound):
		return application.NewNotFoundError(order.Number().String())
	default:
		return application.NewPersistenceError(order.Number().String(), err)
	}
}

func sameCode(order *domain.Order, code domain.AuthorizationCode) bool {
	return order.Outcome().AuthorizationCode.String() == code.String()
}

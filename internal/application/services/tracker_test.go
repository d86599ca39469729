package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DanielPopoola/p2p-invoicing/internal/application"
	"github.com/DanielPopoola/p2p-invoicing/internal/application/mocks"
	"github.com/DanielPopoola/p2p-invoicing/internal/application/services"
	th "github.com/DanielPopoola/p2p-invoicing/internal/application/services/testhelpers"
	"github.com/DanielPopoola/p2p-invoicing/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successResult(t *testing.T, voucher int64) domain.InvoiceResult {
	t.Helper()
	r, err := domain.NewSuccessResult(th.AuthorizationCode(t, voucher), voucher, th.Now)
	require.NoError(t, err)
	return r
}

func failedResult(t *testing.T, kind domain.FailureKind, msg string) domain.InvoiceResult {
	t.Helper()
	r, err := domain.NewFailureResult(kind, msg)
	require.NoError(t, err)
	return r
}

func TestOrderTracker_Import(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewMockOrderRepository(th.NewInvoicedOrder(t, "1001", 7))
	tracker := services.NewOrderTracker(repo, th.Logger())

	inserted, skipped, err := tracker.Import(ctx, []*domain.Order{
		th.NewSellOrder(t, "1001", 0),
		th.NewSellOrder(t, "1002", 0),
		th.NewBuyOrder(t, "1003", 0),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Equal(t, 1, skipped)

	invoiced, err := tracker.IsAlreadyInvoiced(ctx, "1001")
	require.NoError(t, err)
	assert.True(t, invoiced, "import must not reset an existing outcome")
}

func TestOrderTracker_ImportPersistenceError(t *testing.T) {
	repo := mocks.NewMockOrderRepository()
	repo.SaveFn = func(context.Context, *domain.Order) (bool, error) {
		return false, errors.New("connection reset")
	}
	tracker := services.NewOrderTracker(repo, th.Logger())

	_, _, err := tracker.Import(context.Background(), []*domain.Order{th.NewSellOrder(t, "1101", 0)})

	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodePersistence, svcErr.Code)
}

func TestOrderTracker_Candidates(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewMockOrderRepository(
		th.NewSellOrder(t, "2001", 1),
		th.NewSellOrder(t, "2002", 3),
		th.NewFailedOrder(t, "2003", 2),
		th.NewSellOrder(t, "2004", 12),
		th.NewBuyOrder(t, "2005", 0),
		th.NewInvoicedOrder(t, "2006", 3),
		th.NewUnconfirmedOrder(t, "2007", 15),
	)
	tracker := services.NewOrderTracker(repo, th.Logger())

	t.Run("splits eligible from not ready", func(t *testing.T) {
		eligible, notReady, err := tracker.Candidates(ctx, application.PendingFilter{TradeType: domain.TradeSell}, th.Now)
		require.NoError(t, err)

		assert.ElementsMatch(t, []domain.OrderNumber{"2001", "2002", "2003"}, numbers(eligible))
		assert.Equal(t, []domain.OrderNumber{"2004"}, numbers(notReady))
	})

	t.Run("limit applies to eligible orders only", func(t *testing.T) {
		eligible, notReady, err := tracker.Candidates(ctx, application.PendingFilter{TradeType: domain.TradeSell, Limit: 1}, th.Now)
		require.NoError(t, err)

		assert.Len(t, eligible, 1)
		assert.Len(t, notReady, 1)
	})

	t.Run("buy orders are never candidates", func(t *testing.T) {
		eligible, _, err := tracker.Candidates(ctx, application.PendingFilter{}, th.Now)
		require.NoError(t, err)

		assert.NotContains(t, numbers(eligible), domain.OrderNumber("2005"))
	})

	t.Run("unconfirmed approvals are held back", func(t *testing.T) {
		eligible, notReady, err := tracker.Candidates(ctx, application.PendingFilter{TradeType: domain.TradeSell}, th.Now)
		require.NoError(t, err)

		assert.NotContains(t, numbers(eligible), domain.OrderNumber("2007"))
		assert.NotContains(t, numbers(notReady), domain.OrderNumber("2007"))
	})
}

func TestOrderTracker_ApplyResult(t *testing.T) {
	ctx := context.Background()

	t.Run("failure keeps the order retryable", func(t *testing.T) {
		order := th.NewSellOrder(t, "3001", 1)
		repo := mocks.NewMockOrderRepository(order)
		tracker := services.NewOrderTracker(repo, th.Logger())

		next, err := tracker.ApplyResult(ctx, order, failedResult(t, domain.FailureTransport, "timeout"), th.Now)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailure, next.Status())

		invoiced, err := tracker.IsAlreadyInvoiced(ctx, "3001")
		require.NoError(t, err)
		assert.False(t, invoiced)

		eligible, _, err := tracker.Candidates(ctx, application.PendingFilter{TradeType: domain.TradeSell}, th.Now)
		require.NoError(t, err)
		assert.Equal(t, []domain.OrderNumber{"3001"}, numbers(eligible))
	})

	t.Run("success is recorded with every field", func(t *testing.T) {
		order := th.NewSellOrder(t, "3002", 1).WithVoucherSeries(3, domain.InvoiceTypeC)
		repo := mocks.NewMockOrderRepository(order)
		tracker := services.NewOrderTracker(repo, th.Logger())

		_, err := tracker.ApplyResult(ctx, order, successResult(t, 55), th.Now)
		require.NoError(t, err)

		require.Len(t, repo.Updates, 1)
		out := repo.Updates[0].Outcome()
		assert.Equal(t, domain.StatusSuccess, out.Status)
		assert.Equal(t, domain.MethodAutomatic, out.Method)
		assert.Equal(t, th.CAE(55), out.AuthorizationCode.String())
		assert.Equal(t, int64(55), out.VoucherNumber)
		assert.Equal(t, 3, out.PointOfSale)
		assert.Equal(t, domain.CalendarDate(th.Now), out.InvoiceDate)

		invoiced, err := tracker.IsAlreadyInvoiced(ctx, "3002")
		require.NoError(t, err)
		assert.True(t, invoiced)
	})

	t.Run("reapplying the same success is a no-op", func(t *testing.T) {
		order := th.NewInvoicedOrder(t, "3003", 60)
		repo := mocks.NewMockOrderRepository(order)
		tracker := services.NewOrderTracker(repo, th.Logger())

		same, err := tracker.ApplyResult(ctx, order, successResult(t, 60), th.Now)
		require.NoError(t, err)
		assert.Same(t, order, same)
		assert.Empty(t, repo.Updates)
	})

	t.Run("a success cannot be overwritten", func(t *testing.T) {
		order := th.NewInvoicedOrder(t, "3004", 61)
		repo := mocks.NewMockOrderRepository(order)
		tracker := services.NewOrderTracker(repo, th.Logger())

		_, err := tracker.ApplyResult(ctx, order, successResult(t, 62), th.Now)
		assert.ErrorIs(t, err, application.ErrAlreadyInvoiced)

		_, err = tracker.ApplyResult(ctx, order, failedResult(t, domain.FailureTransport, "late"), th.Now)
		assert.ErrorIs(t, err, application.ErrAlreadyInvoiced)
	})

	t.Run("persistence failure is wrapped", func(t *testing.T) {
		order := th.NewSellOrder(t, "3005", 1)
		repo := mocks.NewMockOrderRepository(order)
		repo.UpdateOutcomeFn = func(context.Context, *domain.Order) error { return errors.New("disk full") }
		tracker := services.NewOrderTracker(repo, th.Logger())

		next, err := tracker.ApplyResult(ctx, order, successResult(t, 70), th.Now)

		require.Error(t, err)
		require.NotNil(t, next, "the snapshot is returned for reconciliation")
		svcErr, ok := application.IsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, application.ErrCodePersistence, svcErr.Code)
	})
}

func TestOrderTracker_IsAlreadyInvoicedUnknownOrder(t *testing.T) {
	tracker := services.NewOrderTracker(mocks.NewMockOrderRepository(), th.Logger())

	invoiced, err := tracker.IsAlreadyInvoiced(context.Background(), "missing")

	require.NoError(t, err)
	assert.False(t, invoiced)
}

func TestOrderTracker_MarkManual(t *testing.T) {
	ctx := context.Background()
	manual := func(number string) services.ManualInvoice {
		return services.ManualInvoice{
			OrderNumber:       number,
			AuthorizationCode: "75123456789012",
			Expiration:        th.Now.AddDate(0, 0, 10),
			InvoiceDate:       th.Now.AddDate(0, 0, -20),
		}
	}

	t.Run("marks an old order as invoiced", func(t *testing.T) {
		repo := mocks.NewMockOrderRepository(th.NewFailedOrder(t, "4001", 20))
		tracker := services.NewOrderTracker(repo, th.Logger())

		done, err := tracker.MarkManual(ctx, manual("4001"), th.Now)
		require.NoError(t, err)

		assert.Equal(t, domain.StatusSuccess, done.Status())
		assert.Equal(t, domain.MethodManual, done.Outcome().Method)
		assert.Zero(t, done.Outcome().VoucherNumber)
		assert.Empty(t, done.Outcome().ErrorMessage)
	})

	t.Run("is idempotent for the same code", func(t *testing.T) {
		repo := mocks.NewMockOrderRepository(th.NewSellOrder(t, "4002", 1))
		tracker := services.NewOrderTracker(repo, th.Logger())

		_, err := tracker.MarkManual(ctx, manual("4002"), th.Now)
		require.NoError(t, err)
		_, err = tracker.MarkManual(ctx, manual("4002"), th.Now)
		require.NoError(t, err)

		other := manual("4002")
		other.AuthorizationCode = "75000000000001"
		_, err = tracker.MarkManual(ctx, other, th.Now)
		assert.ErrorIs(t, err, application.ErrAlreadyInvoiced)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		tracker := services.NewOrderTracker(mocks.NewMockOrderRepository(), th.Logger())

		bad := manual("4003")
		bad.AuthorizationCode = "CAE-12"
		_, err := tracker.MarkManual(ctx, bad, th.Now)
		assert.ErrorIs(t, err, domain.ErrInvalidAuthorizationCode)

		svcErr, ok := application.IsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, application.ErrCodeInvalidInput, svcErr.Code)
	})

	t.Run("unknown order", func(t *testing.T) {
		tracker := services.NewOrderTracker(mocks.NewMockOrderRepository(), th.Logger())

		_, err := tracker.MarkManual(ctx, manual("4004"), th.Now)

		svcErr, ok := application.IsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, application.ErrCodeNotFound, svcErr.Code)
	})
}

func numbers(orders []*domain.Order) []domain.OrderNumber {
	out := make([]domain.OrderNumber, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.Number())
	}
	return out
}

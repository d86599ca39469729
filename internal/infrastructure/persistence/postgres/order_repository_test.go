package postgres_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DanielPopoola/p2p-invoicing/internal/application"
	th "github.com/DanielPopoola/p2p-invoicing/internal/application/services/testhelpers"
	"github.com/DanielPopoola/p2p-invoicing/internal/domain"
	"github.com/DanielPopoola/p2p-invoicing/internal/infrastructure/persistence/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderColumnNames = []string{
	"order_number", "trade_type", "asset", "fiat",
	"quantity", "unit_price", "total_price", "commission",
	"counterparty", "created_at",
	"processed_at", "processing_method", "success", "authorization_code", "cae_expiration",
	"voucher_number", "invoice_date", "point_of_sale", "invoice_type", "error_message",
}

func newMockRepository(t *testing.T) (*postgres.OrderRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return postgres.NewOrderRepository(mock, logger), mock
}

func ptr[T any](v T) *T { return &v }

// unprocessedRow mimics what postgres returns for a freshly imported order.
func unprocessedRow(number string, createdAt time.Time) []any {
	return []any{
		number, "SELL", "USDT", "ARS",
		"100.00000000", "1250.50", "125050.00", "0.10000000",
		"buyer-nick", createdAt,
		(*time.Time)(nil), (*string)(nil), (*bool)(nil), (*string)(nil), (*time.Time)(nil),
		(*int64)(nil), (*time.Time)(nil), (*int32)(nil), (*int32)(nil), (*string)(nil),
	}
}

func TestOrderRepository_Save(t *testing.T) {
	ctx := context.Background()
	order := th.NewSellOrder(t, "1001", 1)
	anyArgs := func() []any {
		args := []any{"1001"}
		for i := 0; i < 9; i++ {
			args = append(args, pgxmock.AnyArg())
		}
		return args
	}

	t.Run("inserted", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectExec("INSERT INTO p2p_orders").WithArgs(anyArgs()...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		inserted, err := repo.Save(ctx, order)

		require.NoError(t, err)
		assert.True(t, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already tracked", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectExec("ON CONFLICT \\(order_number\\) DO NOTHING").WithArgs(anyArgs()...).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		inserted, err := repo.Save(ctx, order)

		require.NoError(t, err)
		assert.False(t, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectExec("INSERT INTO p2p_orders").WithArgs(anyArgs()...).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.Save(ctx, order)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_FindByNumber(t *testing.T) {
	ctx := context.Background()

	t.Run("unprocessed order", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectQuery("FROM p2p_orders WHERE order_number").WithArgs("1001").
			WillReturnRows(pgxmock.NewRows(orderColumnNames).AddRow(unprocessedRow("1001", th.Now)...))

		order, err := repo.FindByNumber(ctx, "1001")

		require.NoError(t, err)
		assert.Equal(t, domain.OrderNumber("1001"), order.Number())
		assert.Equal(t, domain.StatusUnprocessed, order.Status())
		assert.True(t, order.Total().Amount().Equal(th.OrderParams("1001", domain.TradeSell, 0).Total.Amount()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invoiced order keeps its outcome", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		row := unprocessedRow("1002", th.Now)
		expires := time.Date(2025, 6, 25, 0, 0, 0, 0, time.UTC)
		invoiceDate := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
		row[10] = ptr(th.Now)
		row[11] = ptr("automatic")
		row[12] = ptr(true)
		row[13] = ptr(th.CAE(42))
		row[14] = ptr(expires)
		row[15] = ptr(int64(42))
		row[16] = ptr(invoiceDate)
		row[17] = ptr(int32(3))
		row[18] = ptr(int32(11))
		mock.ExpectQuery("FROM p2p_orders WHERE order_number").WithArgs("1002").
			WillReturnRows(pgxmock.NewRows(orderColumnNames).AddRow(row...))

		order, err := repo.FindByNumber(ctx, "1002")
		require.NoError(t, err)

		out := order.Outcome()
		assert.True(t, order.IsInvoiced())
		assert.Equal(t, domain.MethodAutomatic, out.Method)
		assert.Equal(t, th.CAE(42), out.AuthorizationCode.String())
		assert.Equal(t, int64(42), out.VoucherNumber)
		assert.Equal(t, 3, out.PointOfSale)
		assert.Equal(t, domain.InvoiceTypeC, out.InvoiceType)
		assert.Equal(t, domain.InvoicingLocation, out.InvoiceDate.Location())
		assert.Equal(t, 15, out.InvoiceDate.Day())
		assert.Equal(t, 25, out.AuthorizationCode.ExpiresOn().Day())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectQuery("FROM p2p_orders WHERE order_number").WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.FindByNumber(ctx, "missing")

		assert.ErrorIs(t, err, application.ErrOrderNotFound)
	})
}

func TestOrderRepository_FindPending(t *testing.T) {
	ctx := context.Background()

	t.Run("returns rows oldest first", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectQuery("WHERE success IS NOT TRUE").WithArgs("SELL", 0).
			WillReturnRows(pgxmock.NewRows(orderColumnNames).
				AddRow(unprocessedRow("2001", th.Now.AddDate(0, 0, -2))...).
				AddRow(unprocessedRow("2002", th.Now.AddDate(0, 0, -1))...))

		orders, err := repo.FindPending(ctx, application.PendingFilter{TradeType: domain.TradeSell})

		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, domain.OrderNumber("2001"), orders[0].Number())
		assert.Equal(t, domain.OrderNumber("2002"), orders[1].Number())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectQuery("WHERE success IS NOT TRUE").WithArgs("", 5).
			WillReturnError(errors.New("relation does not exist"))

		_, err := repo.FindPending(ctx, application.PendingFilter{Limit: 5})

		assert.Error(t, err)
	})
}

func TestOrderRepository_UpdateOutcome(t *testing.T) {
	ctx := context.Background()
	updateArgs := func(number string) []any {
		args := []any{number}
		for i := 0; i < 10; i++ {
			args = append(args, pgxmock.AnyArg())
		}
		return args
	}

	t.Run("writes a first outcome", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		order := th.NewInvoicedOrder(t, "3001", 7)

		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").WithArgs("3001").
			WillReturnRows(pgxmock.NewRows([]string{"success", "authorization_code"}).AddRow((*bool)(nil), (*string)(nil)))
		mock.ExpectExec("UPDATE p2p_orders").WithArgs(updateArgs("3001")...).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		require.NoError(t, repo.UpdateOutcome(ctx, order))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("same success again is a no-op", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		order := th.NewInvoicedOrder(t, "3002", 8)

		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").WithArgs("3002").
			WillReturnRows(pgxmock.NewRows([]string{"success", "authorization_code"}).AddRow(ptr(true), ptr(th.CAE(8))))
		mock.ExpectCommit()

		require.NoError(t, repo.UpdateOutcome(ctx, order))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("a different outcome never replaces a success", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		order := th.NewFailedOrder(t, "3003", 1)

		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").WithArgs("3003").
			WillReturnRows(pgxmock.NewRows([]string{"success", "authorization_code"}).AddRow(ptr(true), ptr(th.CAE(9))))
		mock.ExpectRollback()

		err := repo.UpdateOutcome(ctx, order)

		assert.ErrorIs(t, err, application.ErrAlreadyInvoiced)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown order", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").WithArgs("3004").WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		err := repo.UpdateOutcome(ctx, th.NewFailedOrder(t, "3004", 1))

		assert.ErrorIs(t, err, application.ErrOrderNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("voucher recorded for another order", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").WithArgs("3005").
			WillReturnRows(pgxmock.NewRows([]string{"success", "authorization_code"}).AddRow(ptr(false), (*string)(nil)))
		mock.ExpectExec("UPDATE p2p_orders").WithArgs(updateArgs("3005")...).
			WillReturnError(&pgconn.PgError{Code: "23505"})
		mock.ExpectRollback()

		err := repo.UpdateOutcome(ctx, th.NewInvoicedOrder(t, "3005", 10))

		require.Error(t, err)
		assert.True(t, postgres.IsUniqueViolation(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		err := repo.UpdateOutcome(ctx, th.NewFailedOrder(t, "3006", 1))

		assert.ErrorContains(t, err, "begin transaction")
	})
}

func TestOrderRepository_MaxVoucherNumber(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery("COALESCE\\(MAX\\(voucher_number\\), 0\\)").WithArgs(3, int(domain.InvoiceTypeC)).
		WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(int64(41)))

	max, err := repo.MaxVoucherNumber(context.Background(), 3, domain.InvoiceTypeC)

	require.NoError(t, err)
	assert.Equal(t, int64(41), max)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Summary(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery("COUNT\\(\\*\\) FILTER").
		WillReturnRows(pgxmock.NewRows([]string{"total", "unprocessed", "succeeded", "failed", "manual"}).
			AddRow(10, 4, 5, 1, 2))

	summary, err := repo.Summary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, &application.OrderSummary{Total: 10, Unprocessed: 4, Succeeded: 5, Failed: 1, Manual: 2}, summary)
}

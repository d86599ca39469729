package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/p2p-invoicing/internal/application"
	"github.com/DanielPopoola/p2p-invoicing/internal/domain"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `
	order_number, trade_type, asset, fiat,
	quantity::text, unit_price::text, total_price::text, commission::text,
	counterparty, created_at,
	processed_at, processing_method, success, authorization_code, cae_expiration,
	voucher_number, invoice_date, point_of_sale, invoice_type, error_message`

type OrderRepository struct {
	db     Querier
	logger *slog.Logger
}

func NewOrderRepository(db Querier, logger *slog.Logger) *OrderRepository {
	return &OrderRepository{db: db, logger: logger}
}

// Save inserts a new order. It reports false, without touching the stored
// row, when the order number is already tracked.
func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) (bool, error) {
	query := `
		INSERT INTO p2p_orders (
			order_number, trade_type, asset, fiat,
			quantity, unit_price, total_price, commission,
			counterparty, created_at
		) VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8::numeric, $9, $10)
		ON CONFLICT (order_number) DO NOTHING
	`

	m := toDBModel(order)
	tag, err := r.db.Exec(ctx, query,
		m.OrderNumber,
		m.TradeType,
		m.Asset,
		m.Fiat,
		m.Quantity,
		m.UnitPrice,
		m.TotalPrice,
		m.Commission,
		m.Counterparty,
		m.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to save order: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *OrderRepository) FindByNumber(ctx context.Context, number domain.OrderNumber) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM p2p_orders WHERE order_number = $1`

	order, err := scanOrder(r.db.QueryRow(ctx, query, number.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, number)
	}
	return order, err
}

// FindPending returns orders without a successful outcome, oldest first. A
// zero limit returns every pending order.
func (r *OrderRepository) FindPending(ctx context.Context, filter application.PendingFilter) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM p2p_orders
		WHERE success IS NOT TRUE
		  AND ($1 = '' OR trade_type = $1)
		ORDER BY created_at ASC, order_number ASC
		LIMIT NULLIF($2, 0)
	`

	rows, err := r.db.Query(ctx, query, string(filter.TradeType), filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("query pending orders: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan pending orders: %w", err)
	}
	return results, nil
}

// UpdateOutcome writes the processing columns under a row lock. A stored
// success is never replaced: writing the same authorization code again is a
// no-op and anything else fails with ErrAlreadyInvoiced.
func (r *OrderRepository) UpdateOutcome(ctx context.Context, order *domain.Order) error {
	m := toDBModel(order)

	return r.withTx(ctx, func(q Executor) error {
		var success *bool
		var code *string
		err := q.QueryRow(ctx,
			`SELECT success, authorization_code FROM p2p_orders WHERE order_number = $1 FOR UPDATE`,
			m.OrderNumber,
		).Scan(&success, &code)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, m.OrderNumber)
		}
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}

		if deref(success) {
			if deref(code) == deref(m.AuthorizationCode) {
				return nil
			}
			r.logger.Warn("refusing to overwrite invoiced order",
				"order_number", m.OrderNumber,
				"stored_code", deref(code),
				"new_code", deref(m.AuthorizationCode))
			return ErrAlreadyInvoiced
		}

		_, err = q.Exec(ctx, `
			UPDATE p2p_orders
			SET processed_at = $2, processing_method = $3, success = $4,
				authorization_code = $5, cae_expiration = $6, voucher_number = $7,
				invoice_date = $8, point_of_sale = $9, invoice_type = $10, error_message = $11
			WHERE order_number = $1
		`,
			m.OrderNumber,
			m.ProcessedAt,
			m.ProcessingMethod,
			m.Success,
			m.AuthorizationCode,
			m.CAEExpiration,
			m.VoucherNumber,
			m.InvoiceDate,
			m.PointOfSale,
			m.InvoiceType,
			m.ErrorMessage,
		)
		if IsUniqueViolation(err) {
			return fmt.Errorf("voucher %d already recorded for another order: %w", deref(m.VoucherNumber), err)
		}
		if err != nil {
			return fmt.Errorf("update outcome: %w", err)
		}
		return nil
	})
}

// MaxVoucherNumber returns the highest voucher recorded as successful for
// the series, or zero.
func (r *OrderRepository) MaxVoucherNumber(ctx context.Context, pointOfSale int, invoiceType domain.InvoiceType) (int64, error) {
	var max int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(voucher_number), 0)
		FROM p2p_orders
		WHERE success AND point_of_sale = $1 AND invoice_type = $2
	`, pointOfSale, int(invoiceType)).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("query max voucher number: %w", err)
	}
	return max, nil
}

func (r *OrderRepository) Summary(ctx context.Context) (*application.OrderSummary, error) {
	var s application.OrderSummary
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE success IS NULL),
			COUNT(*) FILTER (WHERE success),
			COUNT(*) FILTER (WHERE success = FALSE),
			COUNT(*) FILTER (WHERE success AND processing_method = 'manual')
		FROM p2p_orders
	`).Scan(&s.Total, &s.Unprocessed, &s.Succeeded, &s.Failed, &s.Manual)
	if err != nil {
		return nil, fmt.Errorf("query order summary: %w", err)
	}
	return &s, nil
}

func (r *OrderRepository) withTx(ctx context.Context, fn func(q Executor) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var m OrderModel
	err := row.Scan(
		&m.OrderNumber, &m.TradeType, &m.Asset, &m.Fiat,
		&m.Quantity, &m.UnitPrice, &m.TotalPrice, &m.Commission,
		&m.Counterparty, &m.CreatedAt,
		&m.ProcessedAt, &m.ProcessingMethod, &m.Success, &m.AuthorizationCode, &m.CAEExpiration,
		&m.VoucherNumber, &m.InvoiceDate, &m.PointOfSale, &m.InvoiceType, &m.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	return toDomainModel(m)
}

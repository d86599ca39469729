package domain_test

import (
	"testing"
	"time"

	"github.com/DanielPopoola/p2p-invoicing/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 15, 15, 0, 0, 0, domain.InvoicingLocation)

func orderParams(number string, tradeType domain.TradeType, createdAt time.Time) domain.OrderParams {
	return domain.OrderParams{
		Number:       domain.OrderNumber(number),
		TradeType:    tradeType,
		Asset:        "USDT",
		Fiat:         domain.ARS,
		Quantity:     decimal.RequireFromString("100"),
		UnitPrice:    domain.MustMoney("1250.50", domain.ARS),
		Total:        domain.MustMoney("125050", domain.ARS),
		Commission:   decimal.RequireFromString("0.1"),
		Counterparty: "buyer-nick",
		CreatedAt:    createdAt,
	}
}

func newOrder(t *testing.T, number string, tradeType domain.TradeType, daysAgo int) *domain.Order {
	t.Helper()
	o, err := domain.NewOrder(orderParams(number, tradeType, now.AddDate(0, 0, -daysAgo)))
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("creates unprocessed order", func(t *testing.T) {
		o := newOrder(t, "1001", domain.TradeSell, 0)

		assert.Equal(t, domain.OrderNumber("1001"), o.Number())
		assert.Equal(t, domain.StatusUnprocessed, o.Status())
		assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, domain.InvoicingLocation), o.OrderDate())
	})

	t.Run("order date uses invoicing timezone", func(t *testing.T) {
		// 01:30 UTC on the 16th is still the 15th in Buenos Aires
		created := time.Date(2025, 6, 16, 1, 30, 0, 0, time.UTC)
		o, err := domain.NewOrder(orderParams("1002", domain.TradeSell, created))

		require.NoError(t, err)
		assert.Equal(t, 15, o.OrderDate().Day())
	})

	t.Run("rejects invalid attributes", func(t *testing.T) {
		cases := map[string]func(p *domain.OrderParams){
			"missing number":   func(p *domain.OrderParams) { p.Number = "" },
			"bad direction":    func(p *domain.OrderParams) { p.TradeType = "HOLD" },
			"zero quantity":    func(p *domain.OrderParams) { p.Quantity = decimal.Zero },
			"negative price":   func(p *domain.OrderParams) { p.UnitPrice = domain.MustMoney("-1", domain.ARS) },
			"zero total":       func(p *domain.OrderParams) { p.Total = domain.ZeroMoney(domain.ARS) },
			"foreign currency": func(p *domain.OrderParams) { p.Total = domain.MustMoney("10", domain.USD) },
			"missing asset":    func(p *domain.OrderParams) { p.Asset = "" },
			"missing time":     func(p *domain.OrderParams) { p.CreatedAt = time.Time{} },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				p := orderParams("1003", domain.TradeSell, now)
				mutate(&p)

				_, err := domain.NewOrder(p)
				assert.ErrorIs(t, err, domain.ErrInvalidOrder)
			})
		}
	})
}

func TestOrder_Eligibility(t *testing.T) {
	cases := []struct {
		name      string
		tradeType domain.TradeType
		daysAgo   int
		want      domain.Eligibility
	}{
		{"today", domain.TradeSell, 0, domain.Eligible},
		{"five days ago", domain.TradeSell, 5, domain.Eligible},
		{"exactly ten days ago", domain.TradeSell, 10, domain.Eligible},
		{"eleven days ago", domain.TradeSell, 11, domain.NotReady},
		{"fifteen days ago", domain.TradeSell, 15, domain.NotReady},
		{"buy orders are never invoiced", domain.TradeBuy, 0, domain.WrongDirection},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := newOrder(t, "2001", tc.tradeType, tc.daysAgo)

			assert.Equal(t, tc.want, o.Eligibility(now))
			assert.Equal(t, tc.want == domain.Eligible, o.IsEligible(now))
		})
	}

	t.Run("window is measured in calendar days", func(t *testing.T) {
		created := time.Date(2025, 6, 5, 0, 5, 0, 0, domain.InvoicingLocation)
		o, err := domain.NewOrder(orderParams("2002", domain.TradeSell, created))
		require.NoError(t, err)

		lateNight := time.Date(2025, 6, 15, 23, 59, 0, 0, domain.InvoicingLocation)
		assert.True(t, o.IsEligible(lateNight))
	})
}

func TestOrder_Transitions(t *testing.T) {
	code, err := domain.NewAuthorizationCode("75123456789012", now.AddDate(0, 0, 10))
	require.NoError(t, err)

	t.Run("success is terminal", func(t *testing.T) {
		o := newOrder(t, "3001", domain.TradeSell, 1)

		done, err := o.MarkSucceeded(code, 42, now, domain.MethodAutomatic, now)
		require.NoError(t, err)

		assert.Equal(t, domain.StatusSuccess, done.Status())
		assert.Equal(t, int64(42), done.Outcome().VoucherNumber)
		assert.Equal(t, domain.AlreadyInvoiced, done.Eligibility(now))

		_, err = done.MarkFailed("boom", domain.MethodAutomatic, now)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		_, err = done.MarkSucceeded(code, 43, now, domain.MethodAutomatic, now)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("transitions never mutate the receiver", func(t *testing.T) {
		o := newOrder(t, "3002", domain.TradeSell, 1)

		_, err := o.MarkFailed("rejected", domain.MethodAutomatic, now)
		require.NoError(t, err)

		assert.Equal(t, domain.StatusUnprocessed, o.Status())
	})

	t.Run("failed orders can be retried", func(t *testing.T) {
		o := newOrder(t, "3003", domain.TradeSell, 1)

		failed, err := o.MarkFailed("timeout", domain.MethodAutomatic, now)
		require.NoError(t, err)
		assert.True(t, failed.IsEligible(now))
		assert.Equal(t, "timeout", failed.Outcome().ErrorMessage)

		again, err := failed.MarkFailed("timeout again", domain.MethodAutomatic, now)
		require.NoError(t, err)

		done, err := again.MarkSucceeded(code, 7, now, domain.MethodAutomatic, now)
		require.NoError(t, err)
		assert.Empty(t, done.Outcome().ErrorMessage)
	})

	t.Run("manual success does not need a voucher number", func(t *testing.T) {
		o := newOrder(t, "3004", domain.TradeSell, 20)

		done, err := o.MarkSucceeded(code, 0, now, domain.MethodManual, now)
		require.NoError(t, err)
		assert.Equal(t, domain.MethodManual, done.Outcome().Method)
	})

	t.Run("automatic success requires voucher number", func(t *testing.T) {
		o := newOrder(t, "3005", domain.TradeSell, 1)

		_, err := o.MarkSucceeded(code, 0, now, domain.MethodAutomatic, now)
		assert.ErrorIs(t, err, domain.ErrInvalidOrder)
	})

	t.Run("voucher series survives transitions", func(t *testing.T) {
		o := newOrder(t, "3007", domain.TradeSell, 1).WithVoucherSeries(3, domain.InvoiceTypeC)

		failed, err := o.MarkFailed("timeout", domain.MethodAutomatic, now)
		require.NoError(t, err)
		done, err := failed.MarkSucceeded(code, 9, now, domain.MethodAutomatic, now)
		require.NoError(t, err)

		assert.Equal(t, 3, done.Outcome().PointOfSale)
		assert.Equal(t, domain.InvoiceTypeC, done.Outcome().InvoiceType)
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		o := newOrder(t, "3006", domain.TradeSell, 1)

		_, err := o.MarkSucceeded(code, 1, now, "robot", now)
		assert.ErrorIs(t, err, domain.ErrInvalidOrder)
	})
}

func TestOrder_ApplyResult(t *testing.T) {
	o := newOrder(t, "4001", domain.TradeSell, 1)

	failure, err := domain.NewFailureResult(domain.FailureAuthorityRejection, "10016: fecha invalida")
	require.NoError(t, err)

	failed, err := o.ApplyResult(failure, now)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailure, failed.Status())
	assert.Equal(t, "[AUTHORITY_REJECTION] 10016: fecha invalida", failed.Outcome().ErrorMessage)

	code, err := domain.NewAuthorizationCode("75123456789012", time.Time{})
	require.NoError(t, err)
	success, err := domain.NewSuccessResult(code, 12, now)
	require.NoError(t, err)

	done, err := failed.ApplyResult(success, now)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, done.Status())
	assert.Equal(t, domain.MethodAutomatic, done.Outcome().Method)
}

func TestOrder_UnconfirmedApproval(t *testing.T) {
	o := newOrder(t, "4002", domain.TradeSell, 1)

	unconfirmed, err := domain.NewUnconfirmedResult(42, "authorization code 75A12 is malformed")
	require.NoError(t, err)
	assert.False(t, unconfirmed.FailureKind().Retryable())

	held, err := o.ApplyResult(unconfirmed, now)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailure, held.Status())
	assert.Equal(t, int64(42), held.Outcome().VoucherNumber)
	kind, ok := held.Outcome().FailureKind()
	require.True(t, ok)
	assert.Equal(t, domain.FailureUnconfirmed, kind)
	assert.Equal(t, domain.AwaitingReconciliation, held.Eligibility(now))
	assert.False(t, held.IsEligible(now))

	t.Run("manual invoice clears it", func(t *testing.T) {
		code, err := domain.NewAuthorizationCode("75123456789012", time.Time{})
		require.NoError(t, err)

		done, err := held.MarkSucceeded(code, 42, now, domain.MethodManual, now)
		require.NoError(t, err)
		assert.Equal(t, domain.AlreadyInvoiced, done.Eligibility(now))
	})

	t.Run("transport failures stay eligible", func(t *testing.T) {
		transport, err := domain.NewFailureResult(domain.FailureTransport, "timeout")
		require.NoError(t, err)

		failed, err := o.ApplyResult(transport, now)
		require.NoError(t, err)
		assert.Equal(t, domain.Eligible, failed.Eligibility(now))
		assert.Zero(t, failed.Outcome().VoucherNumber)
	})
}

func TestParseFailureKind(t *testing.T) {
	cases := []struct {
		message string
		want    domain.FailureKind
		ok      bool
	}{
		{"[TRANSPORT] dial tcp: timeout", domain.FailureTransport, true},
		{"[UNCONFIRMED] malformed code", domain.FailureUnconfirmed, true},
		{"[VALIDATION] total must be positive", domain.FailureValidation, true},
		{"[SOMETHING] else", "", false},
		{"manual note", "", false},
		{"[TRANSPORT missing bracket", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			got, ok := domain.ParseFailureKind(tc.message)

			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

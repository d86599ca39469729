package testhelpers

import (
	"fmt"
	"testing"
	"time"

	"github.com/DanielPopoola/p2p-invoicing/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Now is the fixed clock used across service tests: mid-afternoon in the
// invoicing timezone.
var Now = time.Date(2025, 6, 15, 15, 0, 0, 0, domain.InvoicingLocation)

// Spec is a monotributo style configuration: type C, services, no VAT.
var Spec = domain.InvoiceSpec{
	PointOfSale: 3,
	InvoiceType: domain.InvoiceTypeC,
	Concept:     domain.ConceptServices,
}

func Clock() time.Time { return Now }

// OrderParams returns valid attributes for an order created daysAgo before Now.
func OrderParams(number string, tradeType domain.TradeType, daysAgo int) domain.OrderParams {
	if number == "" {
		number = NewOrderNumber()
	}
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
		CreatedAt:    Now.AddDate(0, 0, -daysAgo),
	}
}

func NewSellOrder(t *testing.T, number string, daysAgo int) *domain.Order {
	t.Helper()
	o, err := domain.NewOrder(OrderParams(number, domain.TradeSell, daysAgo))
	require.NoError(t, err)
	return o
}

func NewBuyOrder(t *testing.T, number string, daysAgo int) *domain.Order {
	t.Helper()
	o, err := domain.NewOrder(OrderParams(number, domain.TradeBuy, daysAgo))
	require.NoError(t, err)
	return o
}

// NewFailedOrder returns a SELL order whose last automatic attempt failed.
func NewFailedOrder(t *testing.T, number string, daysAgo int) *domain.Order {
	t.Helper()
	failed, err := NewSellOrder(t, number, daysAgo).MarkFailed("[TRANSPORT] timeout", domain.MethodAutomatic, Now)
	require.NoError(t, err)
	return failed
}

// NewUnconfirmedOrder returns a SELL order the authority approved as
// voucher without a recordable authorization code.
func NewUnconfirmedOrder(t *testing.T, number string, voucher int64) *domain.Order {
	t.Helper()
	r, err := domain.NewUnconfirmedResult(voucher, "malformed authorization code")
	require.NoError(t, err)
	held, err := NewSellOrder(t, number, 1).ApplyResult(r, Now)
	require.NoError(t, err)
	return held
}

// NewInvoicedOrder returns a SELL order already invoiced with voucher.
func NewInvoicedOrder(t *testing.T, number string, voucher int64) *domain.Order {
	t.Helper()
	code := AuthorizationCode(t, voucher)
	o := NewSellOrder(t, number, 1).WithVoucherSeries(Spec.PointOfSale, Spec.InvoiceType)
	done, err := o.MarkSucceeded(code, voucher, Now, domain.MethodAutomatic, Now)
	require.NoError(t, err)
	return done
}

// AuthorizationCode derives a distinct 14 digit code from seed.
func AuthorizationCode(t *testing.T, seed int64) domain.AuthorizationCode {
	t.Helper()
	code, err := domain.NewAuthorizationCode(CAE(seed), Now.AddDate(0, 0, 10))
	require.NoError(t, err)
	return code
}

func CAE(seed int64) string {
	return fmt.Sprintf("7512%010d", seed)
}

func NewOrderNumber() string {
	return "2025" + uuid.New().String()[:8]
}

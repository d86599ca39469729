package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/DanielPopoola/p2p-invoicing/internal/application"
	"github.com/DanielPopoola/p2p-invoicing/internal/domain"
)

// MockOrderRepository is an in-memory application.OrderRepository. Any Fn
// field that is set replaces the default behaviour.
type MockOrderRepository struct {
	mu      sync.RWMutex
	orders  map[domain.OrderNumber]*domain.Order
	Updates []*domain.Order

	SaveFn             func(ctx context.Context, order *domain.Order) (bool, error)
	FindPendingFn      func(ctx context.Context, filter application.PendingFilter) ([]*domain.Order, error)
	UpdateOutcomeFn    func(ctx context.Context, order *domain.Order) error
	MaxVoucherNumberFn func(ctx context.Context, pointOfSale int, invoiceType domain.InvoiceType) (int64, error)
}

func NewMockOrderRepository(orders ...*domain.Order) *MockOrderRepository {
	m := &MockOrderRepository{orders: make(map[domain.OrderNumber]*domain.Order)}
	for _, o := range orders {
		m.orders[o.Number()] = o
	}
	return m
}

func (m *MockOrderRepository) Save(ctx context.Context, order *domain.Order) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveFn != nil {
		return m.SaveFn(ctx, order)
	}
	if _, ok := m.orders[order.Number()]; ok {
		return false, nil
	}
	m.orders[order.Number()] = order
	return true, nil
}

func (m *MockOrderRepository) FindByNumber(ctx context.Context, number domain.OrderNumber) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[number]
	if !ok {
		return nil, fmt.Errorf("%w: %s", application.ErrOrderNotFound, number)
	}
	return o, nil
}

func (m *MockOrderRepository) FindPending(ctx context.Context, filter application.PendingFilter) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindPendingFn != nil {
		return m.FindPendingFn(ctx, filter)
	}
	var out []*domain.Order
	for _, o := range m.orders {
		if o.IsInvoiced() {
			continue
		}
		if filter.TradeType != "" && o.TradeType() != filter.TradeType {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].CreatedAt().Before(out[j].CreatedAt())
		}
		return out[i].Number() < out[j].Number()
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MockOrderRepository) UpdateOutcome(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateOutcomeFn != nil {
		return m.UpdateOutcomeFn(ctx, order)
	}
	stored, ok := m.orders[order.Number()]
	if !ok {
		return fmt.Errorf("%w: %s", application.ErrOrderNotFound, order.Number())
	}
	if stored.IsInvoiced() {
		if stored.Outcome().AuthorizationCode.String() == order.Outcome().AuthorizationCode.String() {
			return nil
		}
		return application.ErrAlreadyInvoiced
	}
	m.orders[order.Number()] = order
	m.Updates = append(m.Updates, order)
	return nil
}

func (m *MockOrderRepository) MaxVoucherNumber(ctx context.Context, pointOfSale int, invoiceType domain.InvoiceType) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.MaxVoucherNumberFn != nil {
		return m.MaxVoucherNumberFn(ctx, pointOfSale, invoiceType)
	}
	var max int64
	for _, o := range m.orders {
		out := o.Outcome()
		if out.PointOfSale == pointOfSale && out.InvoiceType == invoiceType && out.VoucherNumber > max {
			max = out.VoucherNumber
		}
	}
	return max, nil
}

func (m *MockOrderRepository) Summary(ctx context.Context) (*application.OrderSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := &application.OrderSummary{Total: len(m.orders)}
	for _, o := range m.orders {
		switch o.Status() {
		case domain.StatusSuccess:
			s.Succeeded++
			if o.Outcome().Method == domain.MethodManual {
				s.Manual++
			}
		case domain.StatusFailure:
			s.Failed++
		default:
			s.Unprocessed++
		}
	}
	return s, nil
}

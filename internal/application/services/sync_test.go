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

func TestSyncService_Sync(t *testing.T) {
	ctx := context.Background()
	opts := application.FetchOptions{SinceDays: 7, TradeType: domain.TradeSell}

	t.Run("inserts new orders and skips known ones", func(t *testing.T) {
		repo := mocks.NewMockOrderRepository(th.NewInvoicedOrder(t, "1001", 4))
		source := mocks.NewMockOrderSource(t)
		svc := services.NewSyncService(source, services.NewOrderTracker(repo, th.Logger()), th.Logger())

		source.EXPECT().Fetch(ctx, opts).Return([]*domain.Order{
			th.NewSellOrder(t, "1001", 1),
			th.NewSellOrder(t, "1002", 1),
		}, nil).Once()

		report, err := svc.Sync(ctx, opts)

		require.NoError(t, err)
		assert.Equal(t, &services.SyncReport{Fetched: 2, Inserted: 1, Skipped: 1}, report)
	})

	t.Run("fetch failure stores nothing", func(t *testing.T) {
		repo := mocks.NewMockOrderRepository()
		source := mocks.NewMockOrderSource(t)
		svc := services.NewSyncService(source, services.NewOrderTracker(repo, th.Logger()), th.Logger())

		source.EXPECT().Fetch(ctx, opts).Return(nil, errors.New("signature for this request is not valid")).Once()

		report, err := svc.Sync(ctx, opts)

		assert.Nil(t, report)
		assert.Error(t, err)
		summary, err := repo.Summary(ctx)
		require.NoError(t, err)
		assert.Zero(t, summary.Total)
	})
}

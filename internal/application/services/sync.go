package services

import (
	"context"
	"log/slog"

	"github.com/DanielPopoola/p2p-invoicing/internal/application"
)

type SyncReport struct {
	Fetched  int
	Inserted int
	Skipped  int
}

// SyncService pulls completed orders from the exchange into the tracker.
type SyncService struct {
	source  application.OrderSource
	tracker *OrderTracker
	logger  *slog.Logger
}

func NewSyncService(source application.OrderSource, tracker *OrderTracker, logger *slog.Logger) *SyncService {
	return &SyncService{
		source:  source,
		tracker: tracker,
		logger:  logger,
	}
}

func (s *SyncService) Sync(ctx context.Context, opts application.FetchOptions) (*SyncReport, error) {
	orders, err := s.source.Fetch(ctx, opts)
	if err != nil {
		s.logger.Error("failed to fetch orders", "since_days", opts.SinceDays, "error", err)
		return nil, err
	}

	inserted, skipped, err := s.tracker.Import(ctx, orders)
	report := &SyncReport{
		Fetched:  len(orders),
		Inserted: inserted,
		Skipped:  skipped,
	}
	if err != nil {
		s.logger.Error("failed to import orders", "inserted", inserted, "error", err)
		return report, err
	}

	s.logger.Info("orders synchronized",
		"fetched", report.Fetched,
		"inserted", report.Inserted,
		"skipped", report.Skipped)
	return report, nil
}

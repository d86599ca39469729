package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DanielPopoola/p2p-invoicing/internal/application"
	"github.com/DanielPopoola/p2p-invoicing/internal/application/services"
	"github.com/DanielPopoola/p2p-invoicing/internal/domain"
)

// RetryWorker pulls new orders and resubmits everything still pending on
// every tick. Failed orders stay pending, so each cycle retries them until
// they leave the backdating window.
type RetryWorker struct {
	syncer    *services.SyncService
	processor *services.BatchProcessor
	interval  time.Duration
	batchSize int
	syncDays  int
	logger    *slog.Logger
}

func NewRetryWorker(
	syncer *services.SyncService,
	processor *services.BatchProcessor,
	interval time.Duration,
	batchSize int,
	syncDays int,
	logger *slog.Logger,
) *RetryWorker {
	return &RetryWorker{
		syncer:    syncer,
		processor: processor,
		interval:  interval,
		batchSize: batchSize,
		syncDays:  syncDays,
		logger:    logger,
	}
}

func (w *RetryWorker) Start(ctx context.Context) {
	w.logger.Info("retry worker started", "interval", w.interval, "batch_size", w.batchSize)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runAndLog(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("retry worker stopping")
			return
		case <-ticker.C:
			w.runAndLog(ctx)
		}
	}
}

// RunOnce syncs and then processes one batch. A sync failure does not stop
// processing of orders that are already stored.
func (w *RetryWorker) RunOnce(ctx context.Context) (*services.BatchReport, error) {
	var syncErr error
	if w.syncer != nil {
		_, syncErr = w.syncer.Sync(ctx, application.FetchOptions{
			SinceDays: w.syncDays,
			TradeType: domain.TradeSell,
		})
	}

	report, err := w.processor.ProcessUnprocessed(ctx, services.ProcessOptions{Limit: w.batchSize})
	return report, errors.Join(syncErr, err)
}

func (w *RetryWorker) runAndLog(ctx context.Context) {
	report, err := w.RunOnce(ctx)
	if err != nil {
		w.logger.Error("retry cycle failed", "error", err)
	}
	if report != nil && report.TotalEligible > 0 {
		w.logger.Info("retry cycle finished",
			"run_id", report.RunID,
			"eligible", report.TotalEligible,
			"succeeded", report.Succeeded,
			"failed", report.Failed)
	}
}

package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/DanielPopoola/p2p-invoicing/internal/application"
	"github.com/DanielPopoola/p2p-invoicing/internal/domain"
)

// ReconcileReport compares the authority's voucher counter with the local
// record for one series.
type ReconcileReport struct {
	PointOfSale int
	InvoiceType domain.InvoiceType
	Remote      int64
	Local       int64
	// Missing counts vouchers issued remotely with no local success.
	Missing int64
}

func (r ReconcileReport) InSync() bool {
	return r.Missing == 0
}

type Reconciler struct {
	client   application.InvoicingClient
	repo     application.OrderRepository
	spec     domain.InvoiceSpec
	interval time.Duration
	logger   *slog.Logger
}

func NewReconciler(
	client application.InvoicingClient,
	repo application.OrderRepository,
	spec domain.InvoiceSpec,
	interval time.Duration,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		client:   client,
		repo:     repo,
		spec:     spec,
		interval: interval,
		logger:   logger,
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("starting voucher reconciler",
		"interval", r.interval,
		"point_of_sale", r.spec.PointOfSale,
		"invoice_type", r.spec.InvoiceType)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping voucher reconciler")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error("voucher reconciliation failed", "error", err)
			}
		}
	}
}

// RunOnce executes a single reconciliation cycle. A remote counter behind
// the local one is reported but not counted as missing.
func (r *Reconciler) RunOnce(ctx context.Context) (*ReconcileReport, error) {
	remote, err := r.client.LastVoucherNumber(ctx, r.spec.PointOfSale, r.spec.InvoiceType)
	if err != nil {
		return nil, err
	}

	local, err := r.repo.MaxVoucherNumber(ctx, r.spec.PointOfSale, r.spec.InvoiceType)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{
		PointOfSale: r.spec.PointOfSale,
		InvoiceType: r.spec.InvoiceType,
		Remote:      remote,
		Local:       local,
	}

	switch {
	case remote > local:
		report.Missing = remote - local
		r.logger.Error("VOUCHER_SEQUENCE_DRIFT",
			"point_of_sale", report.PointOfSale,
			"invoice_type", report.InvoiceType,
			"remote_last", remote,
			"local_last", local,
			"missing", report.Missing)
	case remote < local:
		r.logger.Warn("local voucher record is ahead of the authority",
			"point_of_sale", report.PointOfSale,
			"remote_last", remote,
			"local_last", local)
	default:
		r.logger.Info("voucher sequence in sync", "point_of_sale", report.PointOfSale, "last", remote)
	}

	return report, nil
}

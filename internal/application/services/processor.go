package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DanielPopoola/p2p-invoicing/internal/application"
	"github.com/DanielPopoola/p2p-invoicing/internal/domain"
	"github.com/google/uuid"
)

// ProcessOptions narrows one batch run. An empty trade type means SELL.
type ProcessOptions struct {
	Limit     int
	TradeType domain.TradeType
}

// OrderResult is the per-order line of a batch report.
type OrderResult struct {
	OrderNumber       string
	Status            domain.ProcessingStatus
	AuthorizationCode string
	VoucherNumber     int64
	InvoiceDate       time.Time
	FailureKind       domain.FailureKind
	Error             string
}

type BatchReport struct {
	RunID               string
	Now                 time.Time
	TotalEligible       int
	Succeeded           int
	Failed              int
	NotReady            int
	Results             []OrderResult
	PersistenceFailures []string
	// Unconfirmed lists orders the authority approved without a usable
	// answer. They are held until invoiced manually.
	Unconfirmed []string
}

// BatchProcessor runs the pipeline over every pending order.
type BatchProcessor struct {
	tracker   *OrderTracker
	submitter *SubmissionService
	clock     func() time.Time
	logger    *slog.Logger
}

func NewBatchProcessor(
	tracker *OrderTracker,
	submitter *SubmissionService,
	clock func() time.Time,
	logger *slog.Logger,
) *BatchProcessor {
	if clock == nil {
		clock = time.Now
	}
	return &BatchProcessor{
		tracker:   tracker,
		submitter: submitter,
		clock:     clock,
		logger:    logger,
	}
}

// ProcessUnprocessed submits every eligible pending order. The returned
// error joins the persistence failures and unconfirmed approvals; the report is always returned when
// candidates could be loaded.
func (p *BatchProcessor) ProcessUnprocessed(ctx context.Context, opts ProcessOptions) (*BatchReport, error) {
	now := p.clock().In(domain.InvoicingLocation)
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)

	tradeType := opts.TradeType
	if tradeType == "" {
		tradeType = domain.TradeSell
	}

	eligible, notReady, err := p.tracker.Candidates(ctx, application.PendingFilter{
		TradeType: tradeType,
		Limit:     opts.Limit,
	}, now)
	if err != nil {
		logger.Error("failed to load candidate orders", "error", err)
		return nil, err
	}

	report := &BatchReport{
		RunID:         runID,
		Now:           now,
		TotalEligible: len(eligible),
		NotReady:      len(notReady),
	}

	logger.Info("batch started",
		"eligible", report.TotalEligible,
		"not_ready", report.NotReady,
		"trade_type", string(tradeType))

	if len(eligible) == 0 {
		return report, nil
	}

	var errs []error
	for _, outcome := range p.submitter.SubmitBatch(ctx, eligible, now) {
		line := newOrderResult(outcome)
		if outcome.Result.Succeeded() {
			report.Succeeded++
		} else {
			report.Failed++
		}

		if _, err := p.tracker.ApplyResult(ctx, outcome.Order, outcome.Result, now); err != nil {
			number := outcome.Order.Number().String()
			if outcome.Result.Succeeded() {
				logger.Error("MANUAL_RECONCILIATION_REQUIRED",
					"order_number", number,
					"authorization_code", line.AuthorizationCode,
					"voucher_number", line.VoucherNumber,
					"invoice_date", line.InvoiceDate.Format(time.DateOnly),
					"error", err)
			} else {
				logger.Error("failed to record submission failure",
					"order_number", number,
					"error", err)
			}
			report.PersistenceFailures = append(report.PersistenceFailures, number)
			errs = append(errs, err)
		}

		if outcome.Result.FailureKind() == domain.FailureUnconfirmed {
			number := outcome.Order.Number().String()
			logger.Error("MANUAL_RECONCILIATION_REQUIRED",
				"order_number", number,
				"voucher_number", line.VoucherNumber,
				"error", line.Error)
			report.Unconfirmed = append(report.Unconfirmed, number)
			errs = append(errs, application.NewReconciliationError(number, line.VoucherNumber,
				errors.New(line.Error)))
		}

		report.Results = append(report.Results, line)
	}

	logger.Info("batch finished",
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"persistence_failures", len(report.PersistenceFailures),
		"unconfirmed", len(report.Unconfirmed))

	return report, errors.Join(errs...)
}

func newOrderResult(o SubmissionOutcome) OrderResult {
	line := OrderResult{OrderNumber: o.Order.Number().String()}
	if o.Result.Succeeded() {
		line.Status = domain.StatusSuccess
		line.AuthorizationCode = o.Result.AuthorizationCode().String()
		line.VoucherNumber = o.Result.VoucherNumber()
		line.InvoiceDate = o.Result.InvoiceDate()
		return line
	}
	line.Status = domain.StatusFailure
	line.VoucherNumber = o.Result.VoucherNumber()
	line.FailureKind = o.Result.FailureKind()
	line.Error = o.Result.ErrorMessage()
	return line
}

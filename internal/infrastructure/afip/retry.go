package afip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/DanielPopoola/p2p-invoicing/internal/application"
	"github.com/DanielPopoola/p2p-invoicing/internal/config"
	"github.com/DanielPopoola/p2p-invoicing/internal/domain"
)

// RetryClient decorates an InvoicingClient with exponential backoff.
// Sequence queries are retried on any transient error. Submissions are only
// retried when the request provably did not reach the authority, since a
// lost response to a processed voucher must not be sent twice.
type RetryClient struct {
	inner      application.InvoicingClient
	baseDelay  time.Duration
	maxRetries int
	logger     *slog.Logger
}

func NewRetryClient(inner application.InvoicingClient, cfg config.RetryConfig, logger *slog.Logger) *RetryClient {
	maxRetries := int(cfg.MaxRetries)
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryClient{
		inner:      inner,
		baseDelay:  cfg.BaseDelay,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

func (r *RetryClient) LastVoucherNumber(ctx context.Context, pointOfSale int, invoiceType domain.InvoiceType) (int64, error) {
	resp, err := retry(r, ctx, "last_voucher_number", application.IsRetryable,
		func(ctx context.Context) (*int64, error) {
			n, err := r.inner.LastVoucherNumber(ctx, pointOfSale, invoiceType)
			if err != nil {
				return nil, err
			}
			return &n, nil
		},
	)
	if err != nil {
		return 0, err
	}
	return *resp, nil
}

func (r *RetryClient) Submit(ctx context.Context, req application.SubmitRequest) (*application.SubmitResponse, error) {
	return retry(r, ctx, "submit", notDelivered,
		func(ctx context.Context) (*application.SubmitResponse, error) {
			return r.inner.Submit(ctx, req)
		},
	)
}

func retry[T any](
	r *RetryClient,
	ctx context.Context,
	operation string,
	retryable func(error) bool,
	call func(ctx context.Context) (*T, error),
) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := call(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !retryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			delay := r.backoff(attempt)
			r.logger.Warn("retrying gateway call",
				"operation", operation,
				"attempt", attempt+1,
				"delay", delay,
				"error", err)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

// notDelivered reports errors that guarantee the voucher was not processed:
// a refused connection or an explicit throttling or unavailability answer.
func notDelivered(err error) bool {
	if gwErr, ok := application.IsGatewayError(err); ok {
		switch gwErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusBadGateway:
			return true
		}
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}

// Backoff calculation with exponential delay and jitter
func (r *RetryClient) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)
	if r.baseDelay <= 0 {
		return 0
	}

	jitter := time.Duration(rand.Int63n(int64(r.baseDelay)))

	return base + jitter
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/DanielPopoola/p2p-invoicing/internal/application/services"
	"github.com/DanielPopoola/p2p-invoicing/internal/config"
	"github.com/DanielPopoola/p2p-invoicing/internal/domain"
	"github.com/DanielPopoola/p2p-invoicing/internal/infrastructure/afip"
	"github.com/DanielPopoola/p2p-invoicing/internal/infrastructure/exchange"
	"github.com/DanielPopoola/p2p-invoicing/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/p2p-invoicing/internal/worker"
)

const usage = `usage: invoicer <command> [flags]

commands:
  sync       fetch completed P2P orders from the exchange
  process    invoice every eligible pending order
  manual     record an authorization code obtained outside the pipeline
  reconcile  compare the authority voucher counter with local records
  status     print order counts by processing status
  watch      sync, process and reconcile on the worker interval
`

// app holds the wired collaborators shared by every command.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	db         *postgres.DB
	spec       domain.InvoiceSpec
	tracker    *services.OrderTracker
	syncer     *services.SyncService
	processor  *services.BatchProcessor
	reconciler *worker.Reconciler
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start invoicer", "error", err)
		return 1
	}
	defer a.db.Close()

	if err := cmd(ctx, a, args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			return 2
		}
		logger.Error("command failed", "command", args[0], "error", err)
		return 1
	}
	return 0
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	spec, err := cfg.Invoicing.Spec()
	if err != nil {
		return nil, err
	}

	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db.Pool); err != nil {
		db.Close()
		return nil, err
	}

	repo := postgres.NewOrderRepository(db.Pool, logger)

	afipClient := afip.NewClient(cfg.Invoicing, logger)
	invoicingClient := afip.NewRetryClient(afipClient, cfg.Retry, logger)
	exchangeClient := exchange.NewClient(cfg.Exchange, logger)

	submitter, err := services.NewSubmissionService(invoicingClient, spec, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	tracker := services.NewOrderTracker(repo, logger)

	return &app{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		spec:       spec,
		tracker:    tracker,
		syncer:     services.NewSyncService(exchangeClient, tracker, logger),
		processor:  services.NewBatchProcessor(tracker, submitter, nil, logger),
		reconciler: worker.NewReconciler(invoicingClient, repo, spec, cfg.Worker.Interval, logger),
	}, nil
}

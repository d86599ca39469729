package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/DanielPopoola/p2p-invoicing/internal/application"
	"github.com/DanielPopoola/p2p-invoicing/internal/application/services"
	"github.com/DanielPopoola/p2p-invoicing/internal/domain"
	"github.com/DanielPopoola/p2p-invoicing/internal/worker"
)

const dateLayout = "2006-01-02"

var errUsage = errors.New("invalid usage")

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"sync":      syncCmd,
	"process":   processCmd,
	"manual":    manualCmd,
	"reconcile": reconcileCmd,
	"status":    statusCmd,
	"watch":     watchCmd,
}

func parse(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

func tradeType(s string) (domain.TradeType, error) {
	t := domain.TradeType(strings.ToUpper(s))
	if s != "" && !t.Valid() {
		return "", fmt.Errorf("%w: trade type must be BUY or SELL", errUsage)
	}
	return t, nil
}

func parseSyncOptions(args []string) (application.FetchOptions, error) {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	days := fs.Int("days", 7, "how many days of history to fetch")
	typ := fs.String("type", "", "BUY or SELL; both when empty")
	if err := parse(fs, args); err != nil {
		return application.FetchOptions{}, err
	}
	if *days <= 0 {
		return application.FetchOptions{}, fmt.Errorf("%w: days must be positive", errUsage)
	}
	tt, err := tradeType(*typ)
	if err != nil {
		return application.FetchOptions{}, err
	}
	return application.FetchOptions{SinceDays: *days, TradeType: tt}, nil
}

func syncCmd(ctx context.Context, a *app, args []string) error {
	opts, err := parseSyncOptions(args)
	if err != nil {
		return err
	}

	report, err := a.syncer.Sync(ctx, opts)
	if report != nil {
		fmt.Printf("fetched %d, inserted %d, skipped %d\n", report.Fetched, report.Inserted, report.Skipped)
	}
	return err
}

func parseProcessOptions(args []string) (services.ProcessOptions, error) {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	limit := fs.Int("limit", 0, "maximum orders to submit; 0 for all")
	typ := fs.String("type", "SELL", "trade type to invoice")
	if err := parse(fs, args); err != nil {
		return services.ProcessOptions{}, err
	}
	if *limit < 0 {
		return services.ProcessOptions{}, fmt.Errorf("%w: limit cannot be negative", errUsage)
	}
	tt, err := tradeType(*typ)
	if err != nil {
		return services.ProcessOptions{}, err
	}
	return services.ProcessOptions{Limit: *limit, TradeType: tt}, nil
}

func processCmd(ctx context.Context, a *app, args []string) error {
	opts, err := parseProcessOptions(args)
	if err != nil {
		return err
	}

	report, err := a.processor.ProcessUnprocessed(ctx, opts)
	if report != nil {
		printBatchReport(os.Stdout, report)
	}
	return err
}

// parseManual reads the manual command flags. Dates are calendar days in
// the invoicing time zone and the series comes from spec.
func parseManual(args []string, spec domain.InvoiceSpec) (services.ManualInvoice, error) {
	fs := flag.NewFlagSet("manual", flag.ContinueOnError)
	order := fs.String("order", "", "order number")
	cae := fs.String("cae", "", "authorization code")
	expires := fs.String("expires", "", "authorization code expiration, YYYY-MM-DD")
	voucher := fs.Int64("voucher", 0, "voucher number")
	date := fs.String("date", "", "invoice date, YYYY-MM-DD")
	if err := parse(fs, args); err != nil {
		return services.ManualInvoice{}, err
	}
	if *order == "" || *cae == "" || *date == "" {
		fs.Usage()
		return services.ManualInvoice{}, fmt.Errorf("%w: order, cae and date are required", errUsage)
	}
	if *voucher < 0 {
		return services.ManualInvoice{}, fmt.Errorf("%w: voucher cannot be negative", errUsage)
	}

	invoiceDate, err := time.ParseInLocation(dateLayout, *date, domain.InvoicingLocation)
	if err != nil {
		return services.ManualInvoice{}, fmt.Errorf("%w: invoice date: %v", errUsage, err)
	}
	var expiration time.Time
	if *expires != "" {
		expiration, err = time.ParseInLocation(dateLayout, *expires, domain.InvoicingLocation)
		if err != nil {
			return services.ManualInvoice{}, fmt.Errorf("%w: expiration: %v", errUsage, err)
		}
	}

	return services.ManualInvoice{
		OrderNumber:       *order,
		AuthorizationCode: *cae,
		Expiration:        expiration,
		VoucherNumber:     *voucher,
		InvoiceDate:       invoiceDate,
		PointOfSale:       spec.PointOfSale,
		InvoiceType:       spec.InvoiceType,
	}, nil
}

func manualCmd(ctx context.Context, a *app, args []string) error {
	m, err := parseManual(args, a.spec)
	if err != nil {
		return err
	}

	done, err := a.tracker.MarkManual(ctx, m, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("order %s marked as invoiced with %s\n", done.Number(), done.Outcome().AuthorizationCode)
	return nil
}

func reconcileCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	if err := parse(fs, args); err != nil {
		return err
	}

	report, err := a.reconciler.RunOnce(ctx)
	if err != nil {
		return err
	}
	printReconcileReport(os.Stdout, report)
	return nil
}

func statusCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	if err := parse(fs, args); err != nil {
		return err
	}

	s, err := a.tracker.Summary(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOTAL\tUNPROCESSED\tSUCCEEDED\tFAILED\tMANUAL")
	fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\n", s.Total, s.Unprocessed, s.Succeeded, s.Failed, s.Manual)
	return w.Flush()
}

func watchCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	days := fs.Int("days", 7, "how many days of history to fetch on each cycle")
	if err := parse(fs, args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	retryWorker := worker.NewRetryWorker(
		a.syncer,
		a.processor,
		a.cfg.Worker.Interval,
		a.cfg.Worker.BatchSize,
		*days,
		a.logger,
	)

	go a.reconciler.Start(ctx)
	retryWorker.Start(ctx)

	a.logger.Info("invoicer stopped")
	return nil
}

func printBatchReport(out io.Writer, r *services.BatchReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tSTATUS\tVOUCHER\tCAE\tDATE\tERROR")
	for _, res := range r.Results {
		date := ""
		if !res.InvoiceDate.IsZero() {
			date = res.InvoiceDate.Format(dateLayout)
		}
		voucher := ""
		if res.VoucherNumber > 0 {
			voucher = fmt.Sprint(res.VoucherNumber)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			res.OrderNumber, res.Status, voucher, res.AuthorizationCode, date, res.Error)
	}
	w.Flush()

	fmt.Fprintf(out, "\nrun %s: %d eligible, %d succeeded, %d failed, %d outside the backdating window\n",
		r.RunID, r.TotalEligible, r.Succeeded, r.Failed, r.NotReady)
	if len(r.PersistenceFailures) > 0 {
		fmt.Fprintf(out, "invoiced but not recorded, reconcile manually: %s\n", strings.Join(r.PersistenceFailures, ", "))
	}
	if len(r.Unconfirmed) > 0 {
		fmt.Fprintf(out, "approved without a usable code, invoice manually: %s\n", strings.Join(r.Unconfirmed, ", "))
	}
}

func printReconcileReport(out io.Writer, r *worker.ReconcileReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POINT OF SALE\tTYPE\tREMOTE\tLOCAL\tMISSING")
	fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\n", r.PointOfSale, r.InvoiceType, r.Remote, r.Local, r.Missing)
	w.Flush()
}

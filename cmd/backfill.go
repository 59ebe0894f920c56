package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marketledger/reconciler/internal/serve/httphandler"
	"github.com/marketledger/reconciler/internal/support/log"
)

type backfillOptions struct {
	appOptions
	seller               string
	beginDate            string
	endDate              string
	dryRun               bool
	maxProcess           int
	concurrency          int
	reprocessMissingFees bool
}

func backfillCmd() *cobra.Command {
	var opts backfillOptions

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Run the onboarding backfill for a single seller over a historical window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if opts.seller == "" {
				return fmt.Errorf("--seller is required")
			}

			params := httphandler.BackfillParams{
				Seller:               opts.seller,
				DryRun:               opts.dryRun,
				MaxProcess:           opts.maxProcess,
				Concurrency:          opts.concurrency,
				ReprocessMissingFees: opts.reprocessMissingFees,
			}

			var err error
			if opts.beginDate != "" {
				params.BeginDate, err = time.Parse("2006-01-02", opts.beginDate)
				if err != nil {
					return fmt.Errorf("parsing --begin-date: %w", err)
				}
			}
			if opts.endDate != "" {
				params.EndDate, err = time.Parse("2006-01-02", opts.endDate)
				if err != nil {
					return fmt.Errorf("parsing --end-date: %w", err)
				}
			}

			application, err := buildApp(ctx, opts.appOptions)
			if err != nil {
				return fmt.Errorf("building app: %w", err)
			}
			defer application.Close(ctx)

			result, err := application.Backfill.Run(ctx, params)
			if err != nil {
				return fmt.Errorf("running backfill: %w", err)
			}
			log.Ctx(ctx).Infof("backfill complete: processed=%d enqueued=%d skipped=%d errors=%d",
				result.Processed, result.Enqueued, result.Skipped, result.Errors)
			return nil
		},
	}

	bindAppFlags(cmd, &opts.appOptions)
	flags := cmd.Flags()
	flags.StringVar(&opts.seller, "seller", "", "Seller ID to backfill (required).")
	flags.StringVar(&opts.beginDate, "begin-date", "", "ISO date to start the backfill window from.")
	flags.StringVar(&opts.endDate, "end-date", "", "ISO date to end the backfill window at. Defaults to 90 days from now.")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Report what would be enqueued without writing anything.")
	flags.IntVar(&opts.maxProcess, "max-process", 0, "Cap on payments processed; 0 means unbounded.")
	flags.IntVar(&opts.concurrency, "concurrency", 10, "Not read by the backfill: payment details are fetched in parallel under the marketplace client's own semaphore, and payments are processed one at a time.")
	flags.BoolVar(&opts.reprocessMissingFees, "reprocess-missing-fees", false, "Re-run fee validation for payments already marked reconciled.")

	return cmd
}

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marketledger/reconciler/internal/scheduler"
	"github.com/marketledger/reconciler/internal/support/log"
)

type pipelineOptions struct {
	appOptions
	once  bool
	asOf  string
	cron  time.Duration
}

func pipelineCmd() *cobra.Command {
	var opts pipelineOptions

	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run the nightly per-seller reconciliation pipeline (sync, fee validation, gap ingest, settlement, closing)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			application, err := buildApp(ctx, opts.appOptions)
			if err != nil {
				return fmt.Errorf("building app: %w", err)
			}
			defer application.Close(ctx)

			if opts.cron > 0 {
				application.Pipeline.Interval = opts.cron
			}

			if !opts.once {
				scheduler.StartScheduler(application.CrashTrackerClient, scheduler.WithJob(application.Pipeline))
				return nil
			}

			asOf := time.Now()
			if opts.asOf != "" {
				asOf, err = time.Parse("2006-01-02", opts.asOf)
				if err != nil {
					return fmt.Errorf("parsing --as-of: %w", err)
				}
			}

			report, err := application.Pipeline.Run(ctx, asOf)
			if err != nil {
				return fmt.Errorf("running pipeline: %w", err)
			}
			log.Ctx(ctx).Infof("pipeline run complete: %+v", report)
			return nil
		},
	}

	bindAppFlags(cmd, &opts.appOptions)
	flags := cmd.Flags()
	flags.BoolVar(&opts.once, "once", false, "Run a single pass immediately instead of registering with the scheduler.")
	flags.StringVar(&opts.asOf, "as-of", "", "ISO date to run the pipeline as-of, used with --once. Defaults to now.")
	flags.DurationVar(&opts.cron, "interval", 0, "Override the pipeline's run interval when registered with the scheduler.")

	return cmd
}

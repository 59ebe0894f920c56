package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type workerOptions struct {
	appOptions
	pollInterval       time.Duration
	staleResetInterval time.Duration
}

func workerCmd() *cobra.Command {
	var opts workerOptions

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the queue worker loop: posts pending jobs to the ERP with backoff and rate limiting",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			application, err := buildApp(ctx, opts.appOptions)
			if err != nil {
				return fmt.Errorf("building app: %w", err)
			}
			defer application.Close(ctx)

			application.Worker.Run(ctx, opts.pollInterval, opts.staleResetInterval)
			return nil
		},
	}

	bindAppFlags(cmd, &opts.appOptions)
	flags := cmd.Flags()
	flags.DurationVar(&opts.pollInterval, "poll-interval", 5*time.Second, "How often the worker polls for pending jobs.")
	flags.DurationVar(&opts.staleResetInterval, "stale-reset-interval", time.Minute, "How often the worker resets jobs stuck in \"processing\" back to \"failed\" (it also does so once at startup).")

	return cmd
}

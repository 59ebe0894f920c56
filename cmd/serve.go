package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/marketledger/reconciler/internal/serve"
)

type serveOptions struct {
	appOptions
	port               int
	instanceName       string
	corsAllowedOrigins string
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP surface: webhook intake, backfill/settlement triggers, queue operator endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			application, err := buildApp(ctx, opts.appOptions)
			if err != nil {
				return fmt.Errorf("building app: %w", err)
			}
			defer application.Close(ctx)

			serveOpts := serve.ServeOptions{
				Environment:        globalOptions.environment,
				GitCommit:          globalOptions.gitCommit,
				Port:               opts.port,
				Version:            Version,
				InstanceName:       opts.instanceName,
				CorsAllowedOrigins: strings.Split(opts.corsAllowedOrigins, ","),
				MonitorService:     application.MonitorService,
				DBConnectionPool:   application.DBConnectionPool,
				CrashTrackerClient: application.CrashTrackerClient,
				Queue:              application.Queue,
				Backfill:           application.Backfill,
				Settlement:         application.Settlement,
				Webhooks:           application.Webhooks,
			}

			return serve.Serve(serveOpts, &serve.HTTPServer{Ctx: ctx})
		},
	}

	bindAppFlags(cmd, &opts.appOptions)
	flags := cmd.Flags()
	flags.IntVar(&opts.port, "port", 8000, "Port the HTTP server listens on.")
	flags.StringVar(&opts.instanceName, "instance-name", "reconciler", "Name reported in health/status responses.")
	flags.StringVar(&opts.corsAllowedOrigins, "cors-allowed-origins", "*", "Comma-separated list of allowed CORS origins.")

	_ = viper.BindPFlag("port", flags.Lookup("port"))
	_ = viper.BindPFlag("instance_name", flags.Lookup("instance-name"))
	_ = viper.BindPFlag("cors_allowed_origins", flags.Lookup("cors-allowed-origins"))

	return cmd
}

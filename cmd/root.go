// Package cmd wires the reconciliation engine's cobra subcommands: serve
// (HTTP surface), worker (Queue Worker loop), pipeline (nightly
// Orchestrator run), backfill (Onboarding Backfill) and db (schema
// migrations). Configuration binds through viper: flags are the declared
// surface, environment variables (prefixed RECONCILER_) override them.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/marketledger/reconciler/internal/support/log"
)

// globalOptionsType holds the flags every subcommand's PersistentPreRun
// resolves through viper before doing any work.
type globalOptionsType struct {
	logLevel    string
	environment string
	gitCommit   string
	databaseURL string
	sentryDSN   string
}

var globalOptions globalOptionsType

// Version is set at build time via -ldflags "-X .../cmd.Version=...".
var Version = "0.1.0"

// GitCommit is set at build time via -ldflags "-X .../cmd.GitCommit=...".
var GitCommit string

func bindGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("log-level", "INFO", `Log level: "TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL", or "PANIC".`)
	flags.String("environment", "development", `The environment this process is running in, e.g. "development", "staging", "production".`)
	flags.String("database-url", "postgres://localhost:5432/reconciler?sslmode=disable", "Postgres connection string.")
	flags.String("sentry-dsn", "", "Sentry DSN, used when --crash-tracker-type is SENTRY. The tracker type is chosen by that flag, not by whether this DSN is set.")

	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("environment", flags.Lookup("environment"))
	_ = viper.BindPFlag("database_url", flags.Lookup("database-url"))
	_ = viper.BindPFlag("sentry_dsn", flags.Lookup("sentry-dsn"))
}

func resolveGlobalOptions() error {
	level, err := log.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		return err
	}
	log.SetLevel(level)

	globalOptions.logLevel = viper.GetString("log_level")
	globalOptions.environment = viper.GetString("environment")
	globalOptions.databaseURL = viper.GetString("database_url")
	globalOptions.sentryDSN = viper.GetString("sentry_dsn")
	globalOptions.gitCommit = GitCommit
	return nil
}

// RootCmd builds the top-level command with every subcommand attached.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "reconciler",
		Short:   "Marketplace-to-ERP reconciliation engine",
		Long:    "reconciler syncs marketplace payments, posts them to the ERP, and keeps the two systems reconciled.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return resolveGlobalOptions()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	bindGlobalFlags(root)
	viper.SetEnvPrefix("reconciler")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	root.AddCommand(serveCmd())
	root.AddCommand(workerCmd())
	root.AddCommand(pipelineCmd())
	root.AddCommand(backfillCmd())
	root.AddCommand(dbCmd())

	return root
}

// Execute runs the root command; main calls this and exits non-zero on error.
func Execute() error {
	return RootCmd().Execute()
}

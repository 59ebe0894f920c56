package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/marketledger/reconciler/db"
	"github.com/marketledger/reconciler/db/migrations"
	"github.com/marketledger/reconciler/internal/support/log"
)

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the reconciliation engine's database schema",
	}

	cmd.AddCommand(dbMigrateCmd(migrate.Up, "up"))
	cmd.AddCommand(dbMigrateCmd(migrate.Down, "down"))

	return cmd
}

func dbMigrateCmd(direction migrate.MigrationDirection, use string) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Apply pending migrations %s", use),
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := db.Migrate(globalOptions.databaseURL, direction, count, migrations.FS, db.SchemaMigrationsTableName)
			if err != nil {
				return fmt.Errorf("running migrations %s: %w", use, err)
			}
			log.Ctx(cmd.Context()).Infof("applied %d migration(s) %s", n, use)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Maximum number of migrations to apply; 0 means no limit.")

	return cmd
}

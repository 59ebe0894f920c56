package db

import (
	"context"
	"embed"
	"fmt"
	"net/http"

	migrate "github.com/rubenv/sql-migrate"
)

type MigrationTableName string

const (
	// NOTE: this name is hardcoded in dbtest.go and needs to be kept in sync if updated.
	SchemaMigrationsTableName MigrationTableName = "schema_migrations"
)

func Migrate(dbURL string, dir migrate.MigrationDirection, count int, migrationFiles embed.FS, tableName MigrationTableName) (int, error) {
	dbConnectionPool, err := OpenDBConnectionPool(dbURL)
	if err != nil {
		return 0, fmt.Errorf("database URL '%s': %w", truncateDSN(dbURL), err)
	}
	defer dbConnectionPool.Close()

	ms := migrate.MigrationSet{
		TableName: string(tableName),
	}

	m := migrate.HttpFileSystemMigrationSource{FileSystem: http.FS(migrationFiles)}
	ctx := context.Background()
	db, err := dbConnectionPool.SqlDB(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching sql.DB: %w", err)
	}
	return ms.ExecMax(db, dbConnectionPool.DriverName(), m, dir, count)
}

// truncateDSN avoids echoing a full DSN (which may carry a password) into an
// error message.
func truncateDSN(dsn string) string {
	limit := len(dsn) / 4
	if limit >= len(dsn) {
		return dsn
	}
	return dsn[:limit] + "..."
}

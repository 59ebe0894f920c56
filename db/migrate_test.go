package db

import (
	"context"
	"fmt"
	"io/fs"
	"testing"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketledger/reconciler/db/dbtest"
	"github.com/marketledger/reconciler/db/migrations"
)

func migrationFileCount(t *testing.T) int {
	t.Helper()
	var count int
	err := fs.WalkDir(migrations.FS, ".", func(_ string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		if !d.IsDir() {
			count++
		}
		return nil
	})
	require.NoError(t, err)
	return count
}

func TestMigrate_upApplyOne(t *testing.T) {
	testDB := dbtest.OpenWithoutMigrations(t)
	defer testDB.Close()
	dbConnectionPool, err := OpenDBConnectionPool(testDB.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	ctx := context.Background()

	n, err := Migrate(testDB.DSN, migrate.Up, 1, migrations.FS, SchemaMigrationsTableName)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ids := []string{}
	err = dbConnectionPool.SelectContext(ctx, &ids, fmt.Sprintf("SELECT id FROM %s", SchemaMigrationsTableName))
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_sellers.sql"}, ids)
}

func TestMigrate_downApplyOne(t *testing.T) {
	testDB := dbtest.OpenWithoutMigrations(t)
	defer testDB.Close()
	dbConnectionPool, err := OpenDBConnectionPool(testDB.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	ctx := context.Background()

	n, err := Migrate(testDB.DSN, migrate.Up, 2, migrations.FS, SchemaMigrationsTableName)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = Migrate(testDB.DSN, migrate.Down, 1, migrations.FS, SchemaMigrationsTableName)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	ids := []string{}
	err = dbConnectionPool.SelectContext(ctx, &ids, fmt.Sprintf("SELECT id FROM %s", SchemaMigrationsTableName))
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_sellers.sql"}, ids)
}

func TestMigrate_upAndDownAllTheWayTwice(t *testing.T) {
	testDB := dbtest.OpenWithoutMigrations(t)
	defer testDB.Close()
	dbConnectionPool, err := OpenDBConnectionPool(testDB.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	count := migrationFileCount(t)

	n, err := Migrate(testDB.DSN, migrate.Up, count, migrations.FS, SchemaMigrationsTableName)
	require.NoError(t, err)
	require.Equal(t, count, n)

	n, err = Migrate(testDB.DSN, migrate.Down, count, migrations.FS, SchemaMigrationsTableName)
	require.NoError(t, err)
	require.Equal(t, count, n)

	n, err = Migrate(testDB.DSN, migrate.Up, count, migrations.FS, SchemaMigrationsTableName)
	require.NoError(t, err)
	require.Equal(t, count, n)

	n, err = Migrate(testDB.DSN, migrate.Down, count, migrations.FS, SchemaMigrationsTableName)
	require.NoError(t, err)
	require.Equal(t, count, n)
}

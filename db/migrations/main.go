// Package migrations embeds the SQL migration files applied to the
// reconciliation engine's schema, mirroring the way the teacher embeds its
// own migration directory for rubenv/sql-migrate to read from.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

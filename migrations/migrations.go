// Package migrations embeds the SQL schema migrations for the
// order-confirmation service. Files are applied in lexical order by
// database.RunMigrations at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

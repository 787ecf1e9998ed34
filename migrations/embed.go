// Package migrations embeds the SQL schema for the place alias table so
// server bootstrap and integration tests can apply it through the goose
// programmatic API without a migrations directory on disk.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS

// Package migrations embeds the goose SQL migration files so the server
// binary can apply them without a migrations directory on disk.
package migrations

import "embed"

// FS holds the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS

package migrations

import "embed"

// FS contains embedded Postgres migrations for admin storage.
//
//go:embed *.sql
var FS embed.FS

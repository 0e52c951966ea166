package migrations

import "embed"

// FS holds the schema migrations applied by `cli migrate`.
//
//go:embed *.sql
var FS embed.FS

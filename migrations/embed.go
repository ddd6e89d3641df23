// Package migrations embeds SQL migration files for startup and tests.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

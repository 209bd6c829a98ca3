// Package migrations embeds the goose migrations of the relay's report log.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

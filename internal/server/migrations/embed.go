// Package migrations embeds the store server's goose migrations.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

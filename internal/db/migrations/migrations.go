// Package migrations embeds the goose migration scripts.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

// Package migrations embeds the goose migrations for the alert archive.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

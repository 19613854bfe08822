// Package migrations embeds the goose migration files so binaries can apply
// them without shipping the directory alongside.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

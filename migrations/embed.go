// Package migrations embeds the PostgreSQL schema migrations so the server
// and tests can apply them without locating the directory on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

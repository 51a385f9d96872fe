// Package migrations embeds the versioned SQL schema applied by cmd/migrate.
package migrations

import "embed"

// FS holds the *.up.sql / *.down.sql pairs in golang-migrate naming.
//
//go:embed *.sql
var FS embed.FS

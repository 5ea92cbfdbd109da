// Package migrations embeds the kolam schema migrations.
package migrations

import "embed"

// Files holds the *.sql migrations applied at startup.
//
//go:embed *.sql
var Files embed.FS

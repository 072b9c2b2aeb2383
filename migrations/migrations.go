// Package migrations embeds the console's schema scripts, one set per driver.
// Files apply in lexical order; applied files are checksummed and must not change.
package migrations

import "embed"

//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS

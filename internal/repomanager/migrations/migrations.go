// Package migrations embeds the goose migrations for every SQL dialect, one
// directory per dialect name.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS

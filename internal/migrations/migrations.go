// Package migrations embeds the Postgres schema for the remote catalog
// store: the models table, the profile directory, and the change trigger.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

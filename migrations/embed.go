// Package migrations embeds the goose SQL migrations for the vehicles,
// trip_purposes, trips, and trip_audit_log tables.
package migrations

import "embed"

// FS holds the *.sql files. cmd/api applies them on start when
// MIGRATE_ON_START is set; repo tests apply them in TestMain.
//
//go:embed *.sql
var FS embed.FS

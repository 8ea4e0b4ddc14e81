// Package migrations carries the SQL schema migrations compiled into the
// binary. Files are named YYYYMMDD_HHMMSS_description.up.sql with a matching
// .down.sql for rollback.
package migrations

import "embed"

// Files holds every migration in this directory.
//
//go:embed *.sql
var Files embed.FS

package migrations

import "embed"

// UpFiles holds the up migrations applied by internal/migrations.
//
//go:embed *.up.sql
var UpFiles embed.FS

package berean

import "embed"

// MigrationsFS embeds the SQL migrations so the binary can bootstrap its own
// schema on startup.
//
//go:embed migrations
var MigrationsFS embed.FS

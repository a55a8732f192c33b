package accounts

import "embed"

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS exposes the embedded schema migrations so the host
// application can apply them with its own migration runner.
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

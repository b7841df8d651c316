// Package migrations embeds SQL migration files into the binary.
//
// This lets both Harvco binaries run migrations without the SQL files
// being present on the filesystem.
package migrations

import (
	"embed"

	"github.com/harvco/telemetry-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	// Register embedded migrations with the database package.
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // Files are at root of embedded FS
}

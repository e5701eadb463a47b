// Package migrations embeds the scanner's SQLite schema migrations,
// applied via internal/db's sql-migrate wrapper.
package migrations

import (
	_ "embed"

	"github.com/liquidityfi/position-scanner/internal/db"
)

//go:embed 001_scanner_schema_1.sql
var mig001 string

// RunMigrations applies every pending migration against dbPath.
func RunMigrations(dbPath string) error {
	migs := []db.Migration{
		{ID: "001_scanner_schema_1.sql", SQL: mig001},
	}

	return db.RunMigrations(dbPath, migs)
}

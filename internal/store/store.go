package store

import (
	"database/sql"
	"fmt"

	"github.com/liquidityfi/position-scanner/internal/db"
	"github.com/liquidityfi/position-scanner/internal/logger"
	"github.com/liquidityfi/position-scanner/internal/migrations"
	pkgconfig "github.com/liquidityfi/position-scanner/pkg/config"
)

// Store bundles the SQLite connection shared by the Sink and Watermark
// adapters, plus the background maintenance worker that keeps it small.
type Store struct {
	DB         *sql.DB
	Sink       *Sink
	Watermark  *Watermark
	Maintenance db.Maintenance
}

// Open runs pending migrations, opens the database, and wires the Sink,
// Watermark, and maintenance coordinator over the same connection.
func Open(cfg pkgconfig.Config, log *logger.Logger) (*Store, error) {
	if err := migrations.RunMigrations(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("store: run migrations: %w", err)
	}

	sqlDB, err := db.NewSQLiteDBFromConfig(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	maintenance := db.NewMaintenanceCoordinator(cfg.DB.Path, sqlDB, cfg.Maintenance, log)

	return &Store{
		DB:          sqlDB,
		Sink:        NewSink(sqlDB, log),
		Watermark:   NewWatermark(sqlDB, log),
		Maintenance: maintenance,
	}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.DB.Close()
}

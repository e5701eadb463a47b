package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/russross/meddler"

	"github.com/liquidityfi/position-scanner/internal/logger"
	"github.com/liquidityfi/position-scanner/internal/metrics"
	pkgchain "github.com/liquidityfi/position-scanner/pkg/chain"
	"github.com/liquidityfi/position-scanner/pkg/watermark"
)

// watermarkRow is the meddler row mapping for the watermarks table.
type watermarkRow struct {
	Chain       string `meddler:"chain,pk"`
	BlockNumber uint64 `meddler:"block_number"`
	UpdatedAt   int64  `meddler:"updated_at"`
}

// Watermark is the reference SQLite watermark.Store implementation.
type Watermark struct {
	db  *sql.DB
	log *logger.Logger
}

var _ watermark.Store = (*Watermark)(nil)

// NewWatermark wraps db as a watermark.Store.
func NewWatermark(db *sql.DB, log *logger.Logger) *Watermark {
	return &Watermark{db: db, log: log.WithComponent("watermark")}
}

// Get returns the persisted watermark for chainID.
func (w *Watermark) Get(ctx context.Context, chainID pkgchain.ID) (uint64, bool, error) {
	start := time.Now()
	metrics.DBQueryInc(dbLabel, "watermark_get")
	defer func() { metrics.DBQueryDuration(dbLabel, "watermark_get", time.Since(start)) }()

	var row watermarkRow
	err := meddler.QueryRow(w.db, &row, `SELECT * FROM watermarks WHERE chain = ?`, string(chainID))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		metrics.DBErrorsInc(dbLabel, "watermark_get")
		return 0, false, fmt.Errorf("store: get watermark: %w", err)
	}

	return row.BlockNumber, true, nil
}

// Set idempotently persists block as the watermark for chainID.
func (w *Watermark) Set(ctx context.Context, chainID pkgchain.ID, block uint64) error {
	start := time.Now()
	metrics.DBQueryInc(dbLabel, "watermark_set")
	defer func() { metrics.DBQueryDuration(dbLabel, "watermark_set", time.Since(start)) }()

	_, err := w.db.ExecContext(ctx, `
		INSERT INTO watermarks (chain, block_number, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (chain) DO UPDATE SET block_number = excluded.block_number, updated_at = excluded.updated_at`,
		string(chainID), block, time.Now().Unix())
	if err != nil {
		metrics.DBErrorsInc(dbLabel, "watermark_set")
		return fmt.Errorf("store: set watermark: %w", err)
	}

	metrics.Watermark.WithLabelValues(string(chainID)).Set(float64(block))
	return nil
}

// Close is a no-op: the underlying *sql.DB is owned and closed by the
// caller that created it, since it is shared with the Sink.
func (w *Watermark) Close() error {
	return nil
}

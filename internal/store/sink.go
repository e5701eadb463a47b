// Package store implements the reference SQLite-backed ledger.Sink and
// watermark.Store, the adapters the spec treats as out-of-scope ledger
// internals but that this repository needs to be runnable end to end.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/liquidityfi/position-scanner/internal/logger"
	"github.com/liquidityfi/position-scanner/internal/metrics"
	pkgchain "github.com/liquidityfi/position-scanner/pkg/chain"
	pkgevents "github.com/liquidityfi/position-scanner/pkg/events"
	"github.com/liquidityfi/position-scanner/pkg/ledger"
)

const dbLabel = "sqlite"

// Sink is the reference SQLite ledger.Sink implementation.
type Sink struct {
	db  *sql.DB
	log *logger.Logger
}

var _ ledger.Sink = (*Sink)(nil)

// NewSink wraps db as a ledger.Sink.
func NewSink(db *sql.DB, log *logger.Logger) *Sink {
	return &Sink{db: db, log: log.WithComponent("store")}
}

// AppendEvent idempotently inserts event keyed on (chain, tx_hash,
// log_index), reporting Duplicate rather than an error on a repeat.
func (s *Sink) AppendEvent(ctx context.Context, event pkgevents.PositionEvent) (ledger.Outcome, error) {
	start := time.Now()
	metrics.DBQueryInc(dbLabel, "append_event")

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO position_events
			(chain, kind, token_id, block_number, block_hash, tx_hash, tx_index,
			 log_index, liquidity, amount0, amount1, recipient, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(event.Chain), string(event.Kind), bigIntString(event.TokenID),
		event.BlockNumber, event.BlockHash.Hex(), event.TxHash.Hex(),
		event.TxIndex, event.LogIndex,
		nullBigInt(event.Liquidity), nullBigInt(event.Amount0), nullBigInt(event.Amount1),
		recipientHex(event.Recipient), time.Now().Unix(),
	)
	metrics.DBQueryDuration(dbLabel, "append_event", time.Since(start))
	if err != nil {
		metrics.DBErrorsInc(dbLabel, "append_event")
		return ledger.OK, fmt.Errorf("store: append event: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return ledger.OK, fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return ledger.Duplicate, nil
	}
	return ledger.OK, nil
}

// DeleteAbove removes every event for chainID with block_number > block,
// returning how many events and distinct positions were affected.
func (s *Sink) DeleteAbove(ctx context.Context, chainID pkgchain.ID, block uint64) (int, int, error) {
	start := time.Now()
	metrics.DBQueryInc(dbLabel, "delete_above")
	defer func() { metrics.DBQueryDuration(dbLabel, "delete_above", time.Since(start)) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		metrics.DBErrorsInc(dbLabel, "delete_above")
		return 0, 0, fmt.Errorf("store: begin tx: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.log.Errorw("rollback failed", "error", rbErr)
		}
	}()

	var affectedPositions int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT token_id) FROM position_events
		WHERE chain = ? AND block_number > ?`, string(chainID), block).Scan(&affectedPositions)
	if err != nil {
		metrics.DBErrorsInc(dbLabel, "delete_above")
		return 0, 0, fmt.Errorf("store: count affected positions: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM position_events WHERE chain = ? AND block_number > ?`,
		string(chainID), block)
	if err != nil {
		metrics.DBErrorsInc(dbLabel, "delete_above")
		return 0, 0, fmt.Errorf("store: delete above: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("store: rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		metrics.DBErrorsInc(dbLabel, "delete_above")
		return 0, 0, fmt.Errorf("store: commit: %w", err)
	}

	s.log.Infow("rolled back events", "chain", chainID, "above_block", block,
		"deleted_events", deleted, "affected_positions", affectedPositions)

	return int(deleted), affectedPositions, nil
}

func bigIntString(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}

func nullBigInt(n *big.Int) sql.NullString {
	if n == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: n.String(), Valid: true}
}

func recipientHex(addr *common.Address) sql.NullString {
	if addr == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: addr.Hex(), Valid: true}
}

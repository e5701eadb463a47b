// Package watermark describes the durable per-chain watermark contract.
package watermark

import (
	"context"

	"github.com/liquidityfi/position-scanner/pkg/chain"
)

// Store is the durability contract for the per-chain last-scanned-block
// position. A crash after a successful Set must leave the watermark at
// that value; a crash before Set must leave it at the previous value.
// Set is not required to be transactional with ledger appends —
// idempotent appends handle replay duplicates.
type Store interface {
	// Get returns the persisted watermark for chainID, and false if none
	// has ever been persisted (cold start).
	Get(ctx context.Context, chainID chain.ID) (block uint64, ok bool, err error)

	// Set idempotently persists block as the watermark for chainID. It
	// may move the watermark down, which happens during reorg rollback.
	Set(ctx context.Context, chainID chain.ID, block uint64) error

	// Close flushes and releases resources on shutdown.
	Close() error
}

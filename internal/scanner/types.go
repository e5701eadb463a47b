// Package scanner implements the scan loop / reorg controller (C5): one
// task per configured chain, ticking at a fixed interval, forward-syncing
// NFPM position logs to the ledger and reconciling reorgs against a
// sliding recent window.
package scanner

import (
	"github.com/liquidityfi/position-scanner/internal/fetcher"
	"github.com/liquidityfi/position-scanner/internal/window"
	pkgchain "github.com/liquidityfi/position-scanner/pkg/chain"
)

// chainTask holds the mutable state a single chain's goroutine owns
// exclusively: its fetcher, recent window, and in-memory watermark. None
// of this is shared across chains and it needs no locking.
type chainTask struct {
	id      pkgchain.ID
	fetcher *fetcher.LogFetcher
	window  *window.RecentWindow

	watermark   uint64
	initialized bool
}

func newChainTask(id pkgchain.ID, f *fetcher.LogFetcher) *chainTask {
	return &chainTask{id: id, fetcher: f, window: window.New()}
}

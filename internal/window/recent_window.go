// Package window implements the per-chain Recent Window (C3): the
// sliding baseline of recently observed transactions a chain task
// diffs against to detect reorgs.
package window

import "github.com/ethereum/go-ethereum/common"

// Entry is what the window remembers about a transaction: enough to
// detect whether a later observation of the same tx disagrees with it.
type Entry struct {
	BlockHash   common.Hash
	BlockNumber uint64
	LogIndex    uint32
}

// RecentWindow holds one entry per transaction hash observed within the
// last W blocks for a single chain. It is owned exclusively by that
// chain's scan task — never accessed concurrently from another task —
// so it needs no internal locking.
type RecentWindow struct {
	entries map[common.Hash]Entry
}

// New creates an empty RecentWindow.
func New() *RecentWindow {
	return &RecentWindow{entries: make(map[common.Hash]Entry)}
}

// Len returns the number of tracked transactions.
func (w *RecentWindow) Len() int {
	return len(w.entries)
}

// Upsert records e for txHash only if no entry exists yet — first-seen
// wins within a refresh.
func (w *RecentWindow) Upsert(txHash common.Hash, e Entry) {
	if _, exists := w.entries[txHash]; exists {
		return
	}
	w.entries[txHash] = e
}

// Lookup returns the entry for txHash, if any.
func (w *RecentWindow) Lookup(txHash common.Hash) (Entry, bool) {
	e, ok := w.entries[txHash]
	return e, ok
}

// Prune removes every entry with BlockNumber < boundary.
func (w *RecentWindow) Prune(boundary uint64) {
	for txHash, e := range w.entries {
		if e.BlockNumber < boundary {
			delete(w.entries, txHash)
		}
	}
}

// RemoveAbove drops entries with BlockNumber > block, used during
// rollback.
func (w *RecentWindow) RemoveAbove(block uint64) {
	for txHash, e := range w.entries {
		if e.BlockNumber > block {
			delete(w.entries, txHash)
		}
	}
}

// Snapshot returns a copy of the window's current entries, keyed by
// transaction hash. Used by the reorg check to diff against a fresh
// refetch without holding a reference into internal state.
func (w *RecentWindow) Snapshot() map[common.Hash]Entry {
	out := make(map[common.Hash]Entry, len(w.entries))
	for k, v := range w.entries {
		out[k] = v
	}
	return out
}

// Package chain defines the chain-identifier and raw-log types shared by
// every component of the scanner core.
package chain

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// ID is an opaque chain tag drawn from a closed, operator-configured set
// (e.g. "ethereum", "arbitrum", "base").
type ID string

func (id ID) String() string { return string(id) }

// Tag selects which notion of "recent enough to trust" a block-info
// backend should resolve when computing the reorg-detection boundary.
type Tag string

const (
	TagFinalized Tag = "finalized"
	TagSafe      Tag = "safe"
)

// RawLog is a single EVM log as returned by a log-fetch backend, carrying
// just enough provenance to place it in canonical order and to detect a
// reorg against it later.
type RawLog struct {
	Chain       ID
	BlockNumber uint64
	BlockHash   common.Hash
	TxHash      common.Hash
	TxIndex     uint32
	LogIndex    uint32
	Topics      []common.Hash
	Data        []byte
}

// Less orders two logs by the canonical key (blockNumber, txIndex,
// logIndex). Ties are impossible: the triple uniquely identifies a log on
// a chain.
func Less(a, b RawLog) bool {
	if a.BlockNumber != b.BlockNumber {
		return a.BlockNumber < b.BlockNumber
	}
	if a.TxIndex != b.TxIndex {
		return a.TxIndex < b.TxIndex
	}
	return a.LogIndex < b.LogIndex
}

// SortLogs sorts logs in place by the canonical order key.
func SortLogs(logs []RawLog) {
	sort.Slice(logs, func(i, j int) bool { return Less(logs[i], logs[j]) })
}

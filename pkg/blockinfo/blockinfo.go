// Package blockinfo describes the block-head/tag query contract the scan
// loop uses to compute forward-sync targets and reorg-detection
// boundaries.
package blockinfo

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/liquidityfi/position-scanner/pkg/chain"
)

// Service resolves block numbers/hashes for "latest" and for the
// finalized/safe tags, when the backend supports them.
type Service interface {
	// Latest returns the current chain head.
	Latest(ctx context.Context, chainID chain.ID) (blockNumber uint64, err error)

	// ByTag resolves tag ("finalized" or "safe") to a block number and
	// hash. ok is false if the backend does not support the tag, in
	// which case the caller falls back to latest-W.
	ByTag(ctx context.Context, chainID chain.ID, tag chain.Tag) (blockNumber uint64, blockHash common.Hash, ok bool, err error)
}

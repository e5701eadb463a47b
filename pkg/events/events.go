// Package events defines the parsed, typed form of an NFPM position log.
package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/liquidityfi/position-scanner/pkg/chain"
)

// Kind identifies which of the three tracked NFPM lifecycle events a log
// represents.
type Kind string

const (
	KindIncreaseLiquidity Kind = "IncreaseLiquidity"
	KindDecreaseLiquidity Kind = "DecreaseLiquidity"
	KindCollect           Kind = "Collect"
)

// Topic0 signatures for the three tracked events. These are the only log
// shapes this scanner ever parses (spec Non-goal: no other contract
// decoding).
var (
	TopicIncreaseLiquidity = crypto.Keccak256Hash([]byte("IncreaseLiquidity(uint256,uint128,uint256,uint256)"))
	TopicDecreaseLiquidity = crypto.Keccak256Hash([]byte("DecreaseLiquidity(uint256,uint128,uint256,uint256)"))
	TopicCollect           = crypto.Keccak256Hash([]byte("Collect(uint256,address,uint256,uint256)"))
)

// KindForTopic returns the Kind matching a topic0 value, or false if the
// topic is not one of the three tracked signatures.
func KindForTopic(topic0 common.Hash) (Kind, bool) {
	switch topic0 {
	case TopicIncreaseLiquidity:
		return KindIncreaseLiquidity, true
	case TopicDecreaseLiquidity:
		return KindDecreaseLiquidity, true
	case TopicCollect:
		return KindCollect, true
	default:
		return "", false
	}
}

// PositionEvent is the parsed form of a raw NFPM log.
type PositionEvent struct {
	Kind    Kind
	TokenID *big.Int

	// Liquidity, Amount0, Amount1 are populated for IncreaseLiquidity and
	// DecreaseLiquidity; Amount0/Amount1 are also populated for Collect.
	Liquidity *big.Int
	Amount0   *big.Int
	Amount1   *big.Int

	// Recipient is populated only for Collect.
	Recipient *common.Address

	// Provenance, copied from the source log.
	Chain       chain.ID
	BlockNumber uint64
	BlockHash   common.Hash
	TxHash      common.Hash
	TxIndex     uint32
	LogIndex    uint32
}

// Key returns the idempotency key a ledger sink dedupes appends on.
func (e PositionEvent) Key() (chainID chain.ID, txHash common.Hash, logIndex uint32) {
	return e.Chain, e.TxHash, e.LogIndex
}

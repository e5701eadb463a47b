// Package events implements the Event Parser/Dispatcher (C2): it turns
// raw NFPM logs into typed pkg/events.PositionEvent values and hands
// them to the ledger sink in strict canonical order.
package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/liquidityfi/position-scanner/internal/logger"
	pkgchain "github.com/liquidityfi/position-scanner/pkg/chain"
	pkgevents "github.com/liquidityfi/position-scanner/pkg/events"
)

var (
	uint256Ty, _ = abi.NewType("uint256", "", nil)
	uint128Ty, _ = abi.NewType("uint128", "", nil)
	addressTy, _ = abi.NewType("address", "", nil)

	// liquidityArgs decodes the non-indexed fields of
	// IncreaseLiquidity/DecreaseLiquidity: (liquidity, amount0, amount1).
	liquidityArgs = abi.Arguments{
		{Type: uint128Ty}, {Type: uint256Ty}, {Type: uint256Ty},
	}

	// collectArgs decodes the non-indexed fields of Collect:
	// (recipient, amount0, amount1).
	collectArgs = abi.Arguments{
		{Type: addressTy}, {Type: uint256Ty}, {Type: uint256Ty},
	}
)

// Parser decodes raw NFPM logs into PositionEvent values.
type Parser struct {
	log *logger.Logger
}

// NewParser creates a Parser.
func NewParser(log *logger.Logger) *Parser {
	return &Parser{log: log.WithComponent("events")}
}

// Parse decodes log into a PositionEvent. ok is false, with a warning
// already logged, when the log is not one of the three tracked
// signatures or its payload does not match the expected shape — this is
// a non-fatal, single-log anomaly per spec.
func (p *Parser) Parse(log pkgchain.RawLog) (pkgevents.PositionEvent, bool) {
	if len(log.Topics) == 0 {
		p.log.Warnw("dropping log: no topics",
			"chain", log.Chain, "tx", log.TxHash, "log_index", log.LogIndex)
		return pkgevents.PositionEvent{}, false
	}

	kind, ok := pkgevents.KindForTopic(log.Topics[0])
	if !ok {
		p.log.Warnw("dropping log: unknown event signature",
			"chain", log.Chain, "tx", log.TxHash, "log_index", log.LogIndex, "topic0", log.Topics[0])
		return pkgevents.PositionEvent{}, false
	}

	base := pkgevents.PositionEvent{
		Kind:        kind,
		Chain:       log.Chain,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash,
		TxHash:      log.TxHash,
		TxIndex:     log.TxIndex,
		LogIndex:    log.LogIndex,
	}

	if len(log.Topics) < 2 {
		p.log.Warnw("dropping log: missing indexed tokenId topic",
			"chain", log.Chain, "tx", log.TxHash, "log_index", log.LogIndex)
		return pkgevents.PositionEvent{}, false
	}
	base.TokenID = new(big.Int).SetBytes(log.Topics[1].Bytes())

	switch kind {
	case pkgevents.KindIncreaseLiquidity, pkgevents.KindDecreaseLiquidity:
		values, err := liquidityArgs.Unpack(log.Data)
		if err != nil || len(values) != 3 {
			p.log.Warnw("dropping log: failed to decode liquidity event",
				"chain", log.Chain, "tx", log.TxHash, "log_index", log.LogIndex, "error", err)
			return pkgevents.PositionEvent{}, false
		}
		base.Liquidity = toBigInt(values[0])
		base.Amount0 = toBigInt(values[1])
		base.Amount1 = toBigInt(values[2])

	case pkgevents.KindCollect:
		values, err := collectArgs.Unpack(log.Data)
		if err != nil || len(values) != 3 {
			p.log.Warnw("dropping log: failed to decode collect event",
				"chain", log.Chain, "tx", log.TxHash, "log_index", log.LogIndex, "error", err)
			return pkgevents.PositionEvent{}, false
		}
		recipient, ok := values[0].(common.Address)
		if !ok {
			p.log.Warnw("dropping log: collect recipient not an address",
				"chain", log.Chain, "tx", log.TxHash, "log_index", log.LogIndex)
			return pkgevents.PositionEvent{}, false
		}
		base.Recipient = &recipient
		base.Amount0 = toBigInt(values[1])
		base.Amount1 = toBigInt(values[2])
	}

	return base, true
}

func toBigInt(v any) *big.Int {
	switch n := v.(type) {
	case *big.Int:
		return n
	default:
		return big.NewInt(0)
	}
}

// Package fetcher implements the adaptive eth_getLogs fetcher (C1):
// given a block range, it returns the canonically-sorted union of NFPM
// position-event logs, adapting its call span to the backend's load.
package fetcher

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/liquidityfi/position-scanner/internal/logger"
	pkgchain "github.com/liquidityfi/position-scanner/pkg/chain"
	pkgrpc "github.com/liquidityfi/position-scanner/pkg/rpc"
)

// Config bounds the adaptive span and the three NFPM event topics
// scanned on every sub-range.
type Config struct {
	ChunkMin          uint64
	ChunkMax          uint64
	TargetLogsPerCall uint64
	NFPMAddress       common.Address
	Topics            []common.Hash
}

// LogFetcher fetches NFPM logs for a single chain, adapting its call
// span to the backend's observed load.
type LogFetcher struct {
	cfg  Config
	rpc  pkgrpc.EthClient
	log  *logger.Logger
	span uint64
}

// NewLogFetcher creates a LogFetcher bound to one chain's RPC client.
func NewLogFetcher(cfg Config, rpcClient pkgrpc.EthClient, log *logger.Logger) *LogFetcher {
	return &LogFetcher{
		cfg:  cfg,
		rpc:  rpcClient,
		log:  log.WithComponent("log-fetcher"),
		span: cfg.ChunkMax,
	}
}

// GetLogs returns every NFPM log in [fromBlock, toBlock], sorted by
// canonical order, adapting the internal span as it walks the range.
func (lf *LogFetcher) GetLogs(ctx context.Context, chainID pkgchain.ID, fromBlock, toBlock uint64) ([]pkgchain.RawLog, error) {
	if fromBlock > toBlock {
		return nil, fmt.Errorf("fetcher: fromBlock %d > toBlock %d", fromBlock, toBlock)
	}

	if lf.span == 0 {
		lf.span = lf.cfg.ChunkMax
	}
	if initial := toBlock - fromBlock + 1; initial < lf.span {
		lf.span = initial
	}

	var out []pkgchain.RawLog
	cursor := fromBlock

	for cursor <= toBlock {
		subTo := min(cursor+lf.span-1, toBlock)

		logs, coveredTo, err := lf.fetchSubRange(ctx, chainID, cursor, subTo)
		if err != nil {
			return nil, err
		}

		out = append(out, logs...)
		lf.adjustSpan(string(chainID), len(logs))

		cursor = coveredTo + 1
	}

	pkgchain.SortLogs(out)
	return out, nil
}

// fetchSubRange issues one topic-scoped query per tracked event
// signature for [from, to], halving the span on any error from the client
// and retrying over the shrunk sub-range. Retriable and non-retryable
// errors are treated alike: a FetchError is returned only once the span
// is at ChunkMin and the call still fails. The underlying RPC client already
// applies exponential backoff with jitter per call; span-halving is this
// layer's response to a backend that keeps rejecting the range itself.
// It returns the block actually covered by the successful call, which
// may be less than the requested to if the span was halved; the caller
// must resume from there, not from the originally requested to, or the
// blocks between the two are silently skipped.
func (lf *LogFetcher) fetchSubRange(ctx context.Context, chainID pkgchain.ID, from, to uint64) ([]pkgchain.RawLog, uint64, error) {
	for {
		var merged []types.Log
		retry := false

		for _, topic := range lf.cfg.Topics {
			query := ethereum.FilterQuery{
				FromBlock: big.NewInt(int64(from)),
				ToBlock:   big.NewInt(int64(to)),
				Addresses: []common.Address{lf.cfg.NFPMAddress},
				Topics:    [][]common.Hash{{topic}},
			}

			logs, err := lf.rpc.GetLogs(ctx, query)
			if err != nil {
				if lf.span > lf.cfg.ChunkMin {
					lf.span = max(lf.cfg.ChunkMin, lf.span/2)
					SpanAdjustmentInc(string(chainID), "halve_on_error")
					lf.log.Warnw("getLogs failed, halving span and retrying",
						"chain", chainID, "from", from, "to", to, "new_span", lf.span, "error", err)
					to = min(from+lf.span-1, to)
					retry = true
					break
				}
				return nil, 0, &FetchError{Chain: string(chainID), FromBlock: from, ToBlock: to, Err: err}
			}

			merged = append(merged, logs...)
		}

		if !retry {
			return toRawLogs(chainID, merged), to, nil
		}
	}
}

// adjustSpan implements the target-load adjustment: double the span on
// a sparse sub-range, halve it on a hot one.
func (lf *LogFetcher) adjustSpan(chain string, n int) {
	target := lf.cfg.TargetLogsPerCall
	SubRangeLogsObserve(chain, n)

	switch {
	case uint64(n) < target/2 && lf.span < lf.cfg.ChunkMax:
		lf.span = min(lf.cfg.ChunkMax, lf.span*2)
		SpanAdjustmentInc(chain, "double")
	case uint64(n) > target*2 && lf.span > lf.cfg.ChunkMin:
		lf.span = max(lf.cfg.ChunkMin, lf.span/2)
		SpanAdjustmentInc(chain, "halve_on_load")
	}
}

func toRawLogs(chainID pkgchain.ID, logs []types.Log) []pkgchain.RawLog {
	out := make([]pkgchain.RawLog, len(logs))
	for i, l := range logs {
		out[i] = pkgchain.RawLog{
			Chain:       chainID,
			BlockNumber: l.BlockNumber,
			BlockHash:   l.BlockHash,
			TxHash:      l.TxHash,
			TxIndex:     uint32(l.TxIndex),
			LogIndex:    uint32(l.Index),
			Topics:      l.Topics,
			Data:        l.Data,
		}
	}
	return out
}

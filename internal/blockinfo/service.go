// Package blockinfo implements the block-head/tag resolver the scan
// loop uses to compute forward-sync targets and reorg-detection
// boundaries, one RPC client per configured chain.
package blockinfo

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/liquidityfi/position-scanner/internal/logger"
	pkgblockinfo "github.com/liquidityfi/position-scanner/pkg/blockinfo"
	pkgchain "github.com/liquidityfi/position-scanner/pkg/chain"
	pkgrpc "github.com/liquidityfi/position-scanner/pkg/rpc"
)

// ChainClient pairs a chain's RPC client with whether its backend
// supports the finalized/safe tags.
type ChainClient struct {
	RPC                  pkgrpc.EthClient
	SupportsFinalizedTag bool
}

// Service resolves "latest" and finalized/safe tags per chain by
// dispatching to that chain's own RPC client.
type Service struct {
	clients map[pkgchain.ID]ChainClient
	log     *logger.Logger
}

var _ pkgblockinfo.Service = (*Service)(nil)

// New creates a Service over the given per-chain clients.
func New(clients map[pkgchain.ID]ChainClient, log *logger.Logger) *Service {
	return &Service{clients: clients, log: log.WithComponent("block-info")}
}

// Latest returns chainID's current head block number.
func (s *Service) Latest(ctx context.Context, chainID pkgchain.ID) (uint64, error) {
	client, ok := s.clients[chainID]
	if !ok {
		return 0, fmt.Errorf("blockinfo: no rpc client configured for chain %s", chainID)
	}

	header, err := client.RPC.GetLatestBlockHeader(ctx)
	if err != nil {
		return 0, fmt.Errorf("blockinfo: get latest header for chain %s: %w", chainID, err)
	}
	return header.Number.Uint64(), nil
}

// ByTag resolves tag for chainID. ok is false, with no error, whenever
// the chain's backend does not advertise support for the tag or the
// resolution fails transiently — both cases fall back to latest-W at
// the caller.
func (s *Service) ByTag(ctx context.Context, chainID pkgchain.ID, tag pkgchain.Tag) (uint64, common.Hash, bool, error) {
	client, ok := s.clients[chainID]
	if !ok {
		return 0, common.Hash{}, false, fmt.Errorf("blockinfo: no rpc client configured for chain %s", chainID)
	}
	if !client.SupportsFinalizedTag {
		return 0, common.Hash{}, false, nil
	}

	var (
		header *types.Header
		err    error
	)
	switch tag {
	case pkgchain.TagFinalized:
		header, err = client.RPC.GetFinalizedBlockHeader(ctx)
	case pkgchain.TagSafe:
		header, err = client.RPC.GetSafeBlockHeader(ctx)
	default:
		return 0, common.Hash{}, false, fmt.Errorf("blockinfo: unknown tag %q", tag)
	}
	if err != nil {
		s.log.Warnw("tag resolution failed, falling back to latest-W",
			"chain", chainID, "tag", tag, "error", err)
		return 0, common.Hash{}, false, nil
	}

	return header.Number.Uint64(), header.Hash(), true, nil
}

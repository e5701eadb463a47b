package blockinfo

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/liquidityfi/position-scanner/internal/logger"
	rpcmocks "github.com/liquidityfi/position-scanner/internal/rpc/mocks"
	pkgchain "github.com/liquidityfi/position-scanner/pkg/chain"
)

func testService(t *testing.T, chainID pkgchain.ID, supportsFinalized bool) (*Service, *rpcmocks.EthClient) {
	t.Helper()
	log, err := logger.NewLogger("error", true)
	require.NoError(t, err)

	client := rpcmocks.NewEthClient(t)
	svc := New(map[pkgchain.ID]ChainClient{
		chainID: {RPC: client, SupportsFinalizedTag: supportsFinalized},
	}, log)
	return svc, client
}

func TestService_Latest(t *testing.T) {
	svc, client := testService(t, "mainnet", false)

	client.On("GetLatestBlockHeader", context.Background()).
		Return(&types.Header{Number: big.NewInt(100)}, nil).Once()

	n, err := svc.Latest(context.Background(), "mainnet")
	require.NoError(t, err)
	require.Equal(t, uint64(100), n)
}

func TestService_Latest_UnknownChain(t *testing.T) {
	svc, _ := testService(t, "mainnet", false)

	_, err := svc.Latest(context.Background(), "unknown")
	require.Error(t, err)
}

func TestService_ByTag_UnsupportedFallsBack(t *testing.T) {
	svc, _ := testService(t, "mainnet", false)

	_, _, ok, err := svc.ByTag(context.Background(), "mainnet", pkgchain.TagFinalized)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestService_ByTag_Finalized(t *testing.T) {
	svc, client := testService(t, "mainnet", true)

	header := &types.Header{Number: big.NewInt(90)}
	client.On("GetFinalizedBlockHeader", context.Background()).Return(header, nil).Once()

	n, hash, ok, err := svc.ByTag(context.Background(), "mainnet", pkgchain.TagFinalized)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(90), n)
	require.Equal(t, header.Hash(), hash)
}

func TestService_ByTag_ErrorFallsBackWithoutError(t *testing.T) {
	svc, client := testService(t, "mainnet", true)

	client.On("GetSafeBlockHeader", context.Background()).Return(nil, errors.New("rpc down")).Once()

	_, _, ok, err := svc.ByTag(context.Background(), "mainnet", pkgchain.TagSafe)
	require.NoError(t, err)
	require.False(t, ok)
}

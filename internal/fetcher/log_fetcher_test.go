package fetcher

import (
	"context"
	"errors"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/liquidityfi/position-scanner/internal/logger"
	rpcmocks "github.com/liquidityfi/position-scanner/internal/rpc/mocks"
	pkgchain "github.com/liquidityfi/position-scanner/pkg/chain"
)

var (
	testNFPM   = common.HexToAddress("0xC36442b4a4522E871399CD717aBDD847Ab11FE88")
	testTopicA = common.HexToHash("0xaaaa")
	testTopicB = common.HexToHash("0xbbbb")
)

func setupTestLogFetcher(t *testing.T, cfg Config) (*LogFetcher, *rpcmocks.EthClient) {
	t.Helper()

	mockRPC := rpcmocks.NewEthClient(t)
	log, err := logger.NewLogger("error", true)
	require.NoError(t, err)

	return NewLogFetcher(cfg, mockRPC, log), mockRPC
}

func TestLogFetcher_GetLogs_SingleSubRange(t *testing.T) {
	cfg := Config{
		ChunkMin:          10,
		ChunkMax:          1000,
		TargetLogsPerCall: 100,
		NFPMAddress:       testNFPM,
		Topics:            []common.Hash{testTopicA, testTopicB},
	}
	lf, mockRPC := setupTestLogFetcher(t, cfg)

	mockRPC.On("GetLogs", mock.Anything, mock.MatchedBy(func(q ethereum.FilterQuery) bool {
		return q.Topics[0][0] == testTopicA
	})).Return([]types.Log{
		{BlockNumber: 105, TxIndex: 1, Index: 0, TxHash: common.HexToHash("0x01")},
	}, nil)

	mockRPC.On("GetLogs", mock.Anything, mock.MatchedBy(func(q ethereum.FilterQuery) bool {
		return q.Topics[0][0] == testTopicB
	})).Return([]types.Log{
		{BlockNumber: 100, TxIndex: 0, Index: 0, TxHash: common.HexToHash("0x02")},
	}, nil)

	logs, err := lf.GetLogs(context.Background(), "mainnet", 100, 110)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	// canonical order: block 100 before block 105
	require.Equal(t, uint64(100), logs[0].BlockNumber)
	require.Equal(t, uint64(105), logs[1].BlockNumber)
}

func TestLogFetcher_GetLogs_InvalidRange(t *testing.T) {
	lf, _ := setupTestLogFetcher(t, Config{ChunkMin: 1, ChunkMax: 10, TargetLogsPerCall: 1})

	_, err := lf.GetLogs(context.Background(), "mainnet", 10, 5)
	require.Error(t, err)
}

func TestLogFetcher_GetLogs_HalvesSpanOnError(t *testing.T) {
	cfg := Config{
		ChunkMin:          10,
		ChunkMax:          100,
		TargetLogsPerCall: 50,
		NFPMAddress:       testNFPM,
		Topics:            []common.Hash{testTopicA},
	}
	lf, mockRPC := setupTestLogFetcher(t, cfg)
	lf.span = 100

	rangeMatcher := func(from, to uint64) interface{} {
		return mock.MatchedBy(func(q ethereum.FilterQuery) bool {
			return q.FromBlock.Uint64() == from && q.ToBlock.Uint64() == to
		})
	}

	mockRPC.On("GetLogs", mock.Anything, rangeMatcher(1, 100)).
		Return(nil, errors.New("query returned more than 10000 results")).Once()

	// span halves to 50 and the sub-range shrinks to [1,50]; the tail
	// [51,100] must still be fetched on the next iteration, not skipped.
	mockRPC.On("GetLogs", mock.Anything, rangeMatcher(1, 50)).
		Return([]types.Log{{BlockNumber: 50, TxIndex: 0, Index: 0, TxHash: common.HexToHash("0xaa")}}, nil).Once()

	mockRPC.On("GetLogs", mock.Anything, rangeMatcher(51, 100)).
		Return([]types.Log{{BlockNumber: 75, TxIndex: 0, Index: 0, TxHash: common.HexToHash("0xbb")}}, nil).Once()

	logs, err := lf.GetLogs(context.Background(), "mainnet", 1, 100)
	require.NoError(t, err)
	// The span halved to 50 on the error, then doubled back to 100 because
	// the [1,50] sub-range returned fewer than TargetLogsPerCall/2 logs.
	require.Equal(t, uint64(100), lf.span)

	require.Len(t, logs, 2)
	require.Equal(t, uint64(50), logs[0].BlockNumber)
	require.Equal(t, uint64(75), logs[1].BlockNumber)
}

func TestLogFetcher_adjustSpan(t *testing.T) {
	tests := []struct {
		name       string
		startSpan  uint64
		n          int
		target     uint64
		wantResult uint64
	}{
		{name: "sparse doubles", startSpan: 100, n: 1, target: 100, wantResult: 200},
		{name: "hot halves", startSpan: 100, n: 300, target: 100, wantResult: 50},
		{name: "on target stays put", startSpan: 100, n: 100, target: 100, wantResult: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lf, _ := setupTestLogFetcher(t, Config{
				ChunkMin:          10,
				ChunkMax:          10_000,
				TargetLogsPerCall: tt.target,
			})
			lf.span = tt.startSpan

			lf.adjustSpan("mainnet", tt.n)
			require.Equal(t, tt.wantResult, lf.span)
		})
	}
}

func TestLogFetcher_GetLogs_EmptyTopics(t *testing.T) {
	lf, _ := setupTestLogFetcher(t, Config{ChunkMin: 1, ChunkMax: 10, TargetLogsPerCall: 1})

	logs, err := lf.GetLogs(context.Background(), "mainnet", 1, 1)
	require.NoError(t, err)
	require.Empty(t, logs)
}

func TestRawLog_CanonicalOrder(t *testing.T) {
	a := pkgchain.RawLog{BlockNumber: 1, TxIndex: 0, LogIndex: 1}
	b := pkgchain.RawLog{BlockNumber: 1, TxIndex: 0, LogIndex: 2}
	require.True(t, pkgchain.Less(a, b))
	require.False(t, pkgchain.Less(b, a))
}

// Package mocks provides a hand-written testify/mock double for
// pkgrpc.EthClient, in the shape mockery would generate.
package mocks

import (
	"context"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"

	pkgrpc "github.com/liquidityfi/position-scanner/pkg/rpc"
)

// EthClient is a mock of pkgrpc.EthClient.
type EthClient struct {
	mock.Mock
}

var _ pkgrpc.EthClient = (*EthClient)(nil)

// NewEthClient creates a mock EthClient and registers its assertions to
// run on test cleanup.
func NewEthClient(t *testing.T) *EthClient {
	m := &EthClient{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *EthClient) Close() {
	m.Called()
}

func (m *EthClient) GetLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	args := m.Called(ctx, query)
	logs, _ := args.Get(0).([]types.Log)
	return logs, args.Error(1)
}

func (m *EthClient) GetBlockHeader(ctx context.Context, blockNum uint64) (*types.Header, error) {
	args := m.Called(ctx, blockNum)
	header, _ := args.Get(0).(*types.Header)
	return header, args.Error(1)
}

func (m *EthClient) GetLatestBlockHeader(ctx context.Context) (*types.Header, error) {
	args := m.Called(ctx)
	header, _ := args.Get(0).(*types.Header)
	return header, args.Error(1)
}

func (m *EthClient) GetFinalizedBlockHeader(ctx context.Context) (*types.Header, error) {
	args := m.Called(ctx)
	header, _ := args.Get(0).(*types.Header)
	return header, args.Error(1)
}

func (m *EthClient) GetSafeBlockHeader(ctx context.Context) (*types.Header, error) {
	args := m.Called(ctx)
	header, _ := args.Get(0).(*types.Header)
	return header, args.Error(1)
}

func (m *EthClient) BatchGetLogs(ctx context.Context, queries []ethereum.FilterQuery) ([][]types.Log, error) {
	args := m.Called(ctx, queries)
	logs, _ := args.Get(0).([][]types.Log)
	return logs, args.Error(1)
}

func (m *EthClient) BatchGetBlockHeaders(ctx context.Context, blockNums []uint64) ([]*types.Header, error) {
	args := m.Called(ctx, blockNums)
	headers, _ := args.Get(0).([]*types.Header)
	return headers, args.Error(1)
}

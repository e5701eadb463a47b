// Package mocks contains hand-written testify/mock doubles for the
// watermark package's interfaces.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/liquidityfi/position-scanner/pkg/chain"
	"github.com/liquidityfi/position-scanner/pkg/watermark"
)

// Store is a mock double for watermark.Store.
type Store struct {
	mock.Mock
}

var _ watermark.Store = (*Store)(nil)

// NewStore creates a Store and registers t.Cleanup to assert expectations.
func NewStore(t *testing.T) *Store {
	m := &Store{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Store) Get(ctx context.Context, chainID chain.ID) (uint64, bool, error) {
	args := m.Called(ctx, chainID)
	return args.Get(0).(uint64), args.Bool(1), args.Error(2)
}

func (m *Store) Set(ctx context.Context, chainID chain.ID, block uint64) error {
	args := m.Called(ctx, chainID, block)
	return args.Error(0)
}

func (m *Store) Close() error {
	args := m.Called()
	return args.Error(0)
}

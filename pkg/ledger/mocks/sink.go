// Package mocks contains hand-written testify/mock doubles for the
// ledger package's interfaces.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/liquidityfi/position-scanner/pkg/chain"
	"github.com/liquidityfi/position-scanner/pkg/events"
	"github.com/liquidityfi/position-scanner/pkg/ledger"
)

// Sink is a mock double for ledger.Sink.
type Sink struct {
	mock.Mock
}

var _ ledger.Sink = (*Sink)(nil)

// NewSink creates a Sink and registers t.Cleanup to assert expectations.
func NewSink(t *testing.T) *Sink {
	m := &Sink{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Sink) AppendEvent(ctx context.Context, event events.PositionEvent) (ledger.Outcome, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(ledger.Outcome), args.Error(1)
}

func (m *Sink) DeleteAbove(ctx context.Context, chainID chain.ID, block uint64) (int, int, error) {
	args := m.Called(ctx, chainID, block)
	return args.Int(0), args.Int(1), args.Error(2)
}

// Package ledger describes the external ledger-sink contract the scanner
// core dispatches parsed position events to. The ledger's own schema and
// query surface are out of scope for this repository (see spec.md §1); it
// is addressed only through this interface.
package ledger

import (
	"context"
	"fmt"

	"github.com/liquidityfi/position-scanner/pkg/chain"
	"github.com/liquidityfi/position-scanner/pkg/events"
)

// Outcome is the result of an AppendEvent call.
type Outcome int

const (
	// OK means the event was newly inserted.
	OK Outcome = iota
	// Duplicate means an event with the same idempotency key already
	// existed. This is a success outcome, not an error.
	Duplicate
)

func (o Outcome) String() string {
	if o == Duplicate {
		return "duplicate"
	}
	return "ok"
}

// Sink is the append/delete contract a ledger implementation must satisfy.
// Both operations must be atomic with respect to a single call.
type Sink interface {
	// AppendEvent idempotently inserts event, keyed on
	// (chain, transactionHash, logIndex). A Duplicate outcome is a
	// success: the caller must treat it exactly like OK.
	AppendEvent(ctx context.Context, event events.PositionEvent) (Outcome, error)

	// DeleteAbove deletes every event for chain whose block number is
	// strictly greater than block, returning how many events and
	// distinct positions (token IDs) were affected.
	DeleteAbove(ctx context.Context, chain chain.ID, block uint64) (deletedEvents int, affectedPositions int, err error)
}

// ErrSinkFailed wraps a transient sink failure. The dispatcher returns it
// for a failed append so callers can recognize it via errors.As rather
// than string-matching the underlying error; the scan loop aborts the
// current tick on any dispatch error, this one included, without
// advancing the watermark.
type ErrSinkFailed struct {
	Chain chain.ID
	Op    string
	Err   error
}

func (e *ErrSinkFailed) Error() string {
	return fmt.Sprintf("ledger: %s failed for chain %s: %v", e.Op, e.Chain, e.Err)
}

func (e *ErrSinkFailed) Unwrap() error { return e.Err }

// NewSinkFailedError wraps err as an *ErrSinkFailed for the given chain and
// operation name ("append_event" or "delete_above").
func NewSinkFailedError(chainID chain.ID, op string, err error) error {
	return &ErrSinkFailed{Chain: chainID, Op: op, Err: err}
}

package events

import (
	"context"
	"fmt"

	"github.com/liquidityfi/position-scanner/internal/logger"
	"github.com/liquidityfi/position-scanner/internal/metrics"
	pkgchain "github.com/liquidityfi/position-scanner/pkg/chain"
	"github.com/liquidityfi/position-scanner/pkg/ledger"
)

// Dispatcher parses already-sorted raw logs and appends the resulting
// events to a ledger.Sink in strict canonical order, aborting on the
// first sink failure.
type Dispatcher struct {
	parser *Parser
	sink   ledger.Sink
	log    *logger.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(sink ledger.Sink, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		parser: NewParser(log),
		sink:   sink,
		log:    log.WithComponent("events"),
	}
}

// Dispatch parses logs (already sorted in canonical order by C1) and
// appends each resulting event to the sink in order. It returns the
// number of events successfully dispatched and stops at the first sink
// failure, wrapping it as *ledger.ErrSinkFailed.
func (d *Dispatcher) Dispatch(ctx context.Context, chainID pkgchain.ID, logs []pkgchain.RawLog) (int, error) {
	dispatched := 0

	for _, raw := range logs {
		event, ok := d.parser.Parse(raw)
		if !ok {
			continue
		}

		outcome, err := d.sink.AppendEvent(ctx, event)
		if err != nil {
			return dispatched, fmt.Errorf("dispatch event %s/%d: %w",
				event.TxHash, event.LogIndex, ledger.NewSinkFailedError(chainID, "append_event", err))
		}

		metrics.EventDispatchedInc(string(chainID), string(event.Kind))
		d.log.Debugw("dispatched event",
			"chain", chainID, "kind", event.Kind, "tx", event.TxHash,
			"log_index", event.LogIndex, "outcome", outcome.String())

		dispatched++
	}

	return dispatched, nil
}

package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/liquidityfi/position-scanner/internal/events"
	"github.com/liquidityfi/position-scanner/internal/fetcher"
	"github.com/liquidityfi/position-scanner/internal/logger"
	"github.com/liquidityfi/position-scanner/internal/metrics"
	"github.com/liquidityfi/position-scanner/internal/window"
	pkgblockinfo "github.com/liquidityfi/position-scanner/pkg/blockinfo"
	pkgchain "github.com/liquidityfi/position-scanner/pkg/chain"
	"github.com/liquidityfi/position-scanner/pkg/ledger"
	"github.com/liquidityfi/position-scanner/pkg/watermark"
)

// maxBackoff bounds the delay before a chain's next tick after a
// persistent tick failure.
const maxBackoff = 60 * time.Second

// Controller runs one goroutine per configured chain, each ticking at a
// fixed interval and driving the per-tick algorithm: compute the reorg
// boundary, prune the window, forward-sync new logs to the ledger, diff
// the window against a fresh refetch, and roll back and replay if a
// reorg is found. Chains advance independently; a tick never blocks
// another chain's tick.
type Controller struct {
	tasks []*chainTask

	blockInfo   pkgblockinfo.Service
	watermarkSt watermark.Store
	sink        ledger.Sink
	dispatcher  *events.Dispatcher

	pollInterval time.Duration
	windowBlocks uint64
	safetyBuffer uint64

	log *logger.Logger
}

// NewController creates a Controller over chainIDs. fetchers must contain
// one *fetcher.LogFetcher per chain ID.
func NewController(
	chainIDs []pkgchain.ID,
	fetchers map[pkgchain.ID]*fetcher.LogFetcher,
	blockInfo pkgblockinfo.Service,
	watermarkSt watermark.Store,
	sink ledger.Sink,
	dispatcher *events.Dispatcher,
	pollInterval time.Duration,
	windowBlocks uint64,
	safetyBuffer uint64,
	log *logger.Logger,
) (*Controller, error) {
	tasks := make([]*chainTask, 0, len(chainIDs))
	for _, id := range chainIDs {
		f, ok := fetchers[id]
		if !ok {
			return nil, fmt.Errorf("scanner: no log fetcher configured for chain %s", id)
		}
		tasks = append(tasks, newChainTask(id, f))
	}

	return &Controller{
		tasks:        tasks,
		blockInfo:    blockInfo,
		watermarkSt:  watermarkSt,
		sink:         sink,
		dispatcher:   dispatcher,
		pollInterval: pollInterval,
		windowBlocks: windowBlocks,
		safetyBuffer: safetyBuffer,
		log:          log.WithComponent("scanner"),
	}, nil
}

// Run starts one goroutine per chain and blocks until every chain
// goroutine returns, which happens only when ctx is cancelled. Each
// chain goroutine finishes its current tick (or backoff wait) before
// returning, matching the teacher's drain-before-close shutdown order;
// the caller closes the watermark store and ledger sink only after Run
// returns.
func (c *Controller) Run(ctx context.Context) error {
	var g errgroup.Group
	for _, t := range c.tasks {
		t := t
		g.Go(func() error {
			c.runChain(ctx, t)
			return nil
		})
	}
	return g.Wait()
}

func (c *Controller) runChain(ctx context.Context, t *chainTask) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := c.tick(ctx, t); err != nil {
			metrics.Errors.WithLabelValues("scanner", "error").Inc()
			c.log.Errorw("tick failed, backing off", "chain", t.id, "error", err)

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoffDelay(c.pollInterval)):
			}
		}
	}
}

func backoffDelay(poll time.Duration) time.Duration {
	d := 2 * poll
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// tick runs one full iteration of the per-tick algorithm for t.
func (c *Controller) tick(ctx context.Context, t *chainTask) error {
	start := time.Now()

	if !t.initialized {
		persisted, ok, err := c.watermarkSt.Get(ctx, t.id)
		if err != nil {
			return fmt.Errorf("get watermark for chain %s: %w", t.id, err)
		}
		if ok {
			t.watermark = persisted
			t.initialized = true
		}
	}

	if !t.initialized {
		latest, err := c.blockInfo.Latest(ctx, t.id)
		if err != nil {
			return fmt.Errorf("cold start: latest for chain %s: %w", t.id, err)
		}
		if err := c.watermarkSt.Set(ctx, t.id, latest); err != nil {
			return fmt.Errorf("cold start: set watermark for chain %s: %w", t.id, err)
		}
		t.watermark = latest
		t.initialized = true
		c.log.Infow("cold start", "chain", t.id, "watermark", latest)
	}

	boundary, err := c.computeBoundary(ctx, t)
	if err != nil {
		return fmt.Errorf("compute boundary for chain %s: %w", t.id, err)
	}
	t.window.Prune(boundary)

	latest, err := c.blockInfo.Latest(ctx, t.id)
	if err != nil {
		return fmt.Errorf("latest for chain %s: %w", t.id, err)
	}

	logsFound := 0
	if latest > t.watermark {
		n, err := c.forwardSync(ctx, t, t.watermark+1, latest)
		if err != nil {
			return err
		}
		logsFound = n
	}

	metrics.TickObserved(string(t.id), t.watermark, latest, uint64(t.window.Len()), logsFound, time.Since(start))
	c.log.Infow("tick complete",
		"chain", t.id, "watermark", t.watermark, "latest", latest,
		"window_size", t.window.Len(), "logs_found", logsFound)

	minAffected, detected, err := c.checkReorg(ctx, t, latest)
	if err != nil {
		return fmt.Errorf("reorg check for chain %s: %w", t.id, err)
	}
	if detected {
		if err := c.rollbackAndReplay(ctx, t, minAffected, latest); err != nil {
			return fmt.Errorf("rollback/replay for chain %s: %w", t.id, err)
		}
	}

	return nil
}

// computeBoundary resolves the reorg-detection prune boundary as
// max(finalized_or_safe, latest-W). The max matters: on a chain whose
// finality lags more than W blocks behind head, a bare finalized/safe
// tag would prune the window below checkReorg's own refetch floor
// (latest-W), leaving entries in [finalized, latest-W) that checkReorg
// can never see again in its refetch and so flags as missing every
// tick. Keeping the boundary no lower than latest-W keeps the window
// and the refetch range aligned.
func (c *Controller) computeBoundary(ctx context.Context, t *chainTask) (uint64, error) {
	latest, err := c.blockInfo.Latest(ctx, t.id)
	if err != nil {
		return 0, err
	}
	windowFloor := uint64(0)
	if latest > c.windowBlocks {
		windowFloor = latest - c.windowBlocks
	}

	finalizedOrSafe, ok, err := c.finalizedOrSafe(ctx, t)
	if err != nil {
		return 0, err
	}
	if ok && finalizedOrSafe > windowFloor {
		return finalizedOrSafe, nil
	}
	return windowFloor, nil
}

// finalizedOrSafe returns the finalized tag, falling back to safe, ok
// being false if neither tag is supported on this chain.
func (c *Controller) finalizedOrSafe(ctx context.Context, t *chainTask) (uint64, bool, error) {
	if num, _, ok, err := c.blockInfo.ByTag(ctx, t.id, pkgchain.TagFinalized); err != nil {
		return 0, false, err
	} else if ok {
		return num, true, nil
	}

	if num, _, ok, err := c.blockInfo.ByTag(ctx, t.id, pkgchain.TagSafe); err != nil {
		return 0, false, err
	} else if ok {
		return num, true, nil
	}

	return 0, false, nil
}

// forwardSync fetches logs in [from, to], dispatches them to the ledger
// in order, upserts the window, and advances the watermark to to. It
// aborts before any watermark advance if dispatch fails partway through,
// so a failed call never leaves the watermark ahead of what was
// committed.
func (c *Controller) forwardSync(ctx context.Context, t *chainTask, from, to uint64) (int, error) {
	if from > to {
		return 0, nil
	}

	logs, err := t.fetcher.GetLogs(ctx, t.id, from, to)
	if err != nil {
		return 0, fmt.Errorf("forward sync chain %s [%d,%d]: %w", t.id, from, to, err)
	}

	if _, err := c.dispatcher.Dispatch(ctx, t.id, logs); err != nil {
		return 0, err
	}

	for _, l := range logs {
		t.window.Upsert(l.TxHash, window.Entry{BlockHash: l.BlockHash, BlockNumber: l.BlockNumber, LogIndex: l.LogIndex})
	}

	if err := c.watermarkSt.Set(ctx, t.id, to); err != nil {
		return 0, fmt.Errorf("set watermark for chain %s to %d: %w", t.id, to, err)
	}
	t.watermark = to

	return len(logs), nil
}

// checkReorg diffs the current window against a fresh refetch of
// [latest-W, latest]. The check is one-directional: a transaction new to
// the refetch is not a reorg, only a transaction that vanished or moved
// is.
func (c *Controller) checkReorg(ctx context.Context, t *chainTask, latest uint64) (minAffected uint64, detected bool, err error) {
	if t.window.Len() == 0 {
		return 0, false, nil
	}

	windowStart := uint64(0)
	if latest > c.windowBlocks {
		windowStart = latest - c.windowBlocks
	}

	current, err := t.fetcher.GetLogs(ctx, t.id, windowStart, latest)
	if err != nil {
		return 0, false, err
	}

	currentIndex := make(map[common.Hash]window.Entry, len(current))
	for _, l := range current {
		if _, exists := currentIndex[l.TxHash]; exists {
			continue
		}
		currentIndex[l.TxHash] = window.Entry{BlockHash: l.BlockHash, BlockNumber: l.BlockNumber, LogIndex: l.LogIndex}
	}

	for txHash, prev := range t.window.Snapshot() {
		cur, ok := currentIndex[txHash]

		var candidate uint64
		switch {
		case !ok:
			candidate = prev.BlockNumber
		case cur.BlockHash != prev.BlockHash || cur.LogIndex != prev.LogIndex:
			candidate = prev.BlockNumber
			if cur.BlockNumber < candidate {
				candidate = cur.BlockNumber
			}
		default:
			continue
		}

		if !detected || candidate < minAffected {
			minAffected = candidate
			detected = true
		}
	}

	return minAffected, detected, nil
}

// rollbackAndReplay clamps the safe ancestor, rolls the window, watermark
// and ledger back to it, then forward-syncs from ancestor+1 to latest to
// repopulate canonical state.
func (c *Controller) rollbackAndReplay(ctx context.Context, t *chainTask, minAffected, latest uint64) error {
	ancestor := uint64(0)
	if minAffected > c.safetyBuffer {
		ancestor = minAffected - c.safetyBuffer
	}

	t.window.RemoveAbove(ancestor)

	if err := c.watermarkSt.Set(ctx, t.id, ancestor); err != nil {
		return fmt.Errorf("set watermark to ancestor %d: %w", ancestor, err)
	}
	t.watermark = ancestor

	deletedEvents, affectedPositions, err := c.sink.DeleteAbove(ctx, t.id, ancestor)
	if err != nil {
		return fmt.Errorf("delete ledger events above %d: %w", ancestor, err)
	}

	metrics.ReorgDetectedLog(string(t.id), minAffected, ancestor)
	c.log.Warnw("reorg detected",
		"chain", t.id, "min_affected_block", minAffected, "ancestor", ancestor,
		"deleted_events", deletedEvents, "affected_positions", affectedPositions)

	if _, err := c.forwardSync(ctx, t, ancestor+1, latest); err != nil {
		return fmt.Errorf("replay from %d to %d: %w", ancestor+1, latest, err)
	}

	return nil
}

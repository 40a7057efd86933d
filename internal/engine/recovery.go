package engine

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zynqcloud/kvfs/internal/pager"
)

// sweepConcurrency bounds how many compensating deletes the recovery sweep
// runs at once. A crash leaving thousands of unresolved markers must not
// open thousands of simultaneous substrate operations — grounded on the
// bounded-fan-out pattern golang.org/x/sync/errgroup.Group.SetLimit gives,
// the same shape as the teacher's assemblySem channel semaphore.
const sweepConcurrency = 16

// Recover scans every unresolved marker and starts a Delete for it,
// cleaning up orphaned chunk tails from crashed saves and resuming stalled
// deletes. It blocks until the sweep completes; callers that want the
// teacher's "begin without awaiting" behaviour should call it in a
// goroutine. Errors are logged and swallowed — a single corrupt marker must
// not abort the rest of the sweep.
func (e *Engine) Recover(ctx context.Context) {
	it := pager.New(e.sub, kvPrefixParams(unresolvedPrefix()), DefaultReadDirPageSize)

	// Materialize the full marker list before dispatching deletes: each
	// resolved delete removes its own marker, and mutating the substrate
	// while a cursor-based scan of the same range is still in flight is
	// not a safe interleaving to rely on.
	var pending []unresolvedPayload
	for {
		page, ok, err := it.Next(ctx)
		if err != nil {
			e.log.Warn("recovery sweep: list failed", zap.Error(err))
			break
		}
		if !ok {
			break
		}
		var payload unresolvedPayload
		if err := json.Unmarshal(page.Entry.Value, &payload); err != nil {
			e.log.Warn("recovery sweep: corrupt marker, skipping", zap.Error(err))
			continue
		}
		pending = append(pending, payload)
	}

	if len(pending) == 0 {
		return
	}
	e.mx.SweepFound.Add(float64(len(pending)))

	g, gctx := errgroup.WithContext(context.Background())
	g.SetLimit(sweepConcurrency)
	for _, payload := range pending {
		path, clientID := payload.Path, payload.ClientID
		g.Go(func() error {
			_, _, err := e.Delete(gctx, ReadOptions{Path: path, ClientID: clientID})
			if err != nil {
				e.log.Warn("recovery sweep: delete failed", zap.Strings("path", path), zap.Error(err))
				return nil // swallow: never abort the sweep over one failure
			}
			e.mx.SweepResolved.Inc()
			return nil
		})
	}
	_ = g.Wait()

	e.log.Info("recovery sweep complete", zap.Int("unresolved_found", len(pending)))
}

package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zynqcloud/kvfs/internal/inflight"
	"github.com/zynqcloud/kvfs/internal/pager"
	"github.com/zynqcloud/kvfs/internal/ratelimit"
)

// Delete removes the file record at opts.Path and every chunk record for
// its URI. The file record is deleted first so a concurrent Read observes
// the file as gone before its chunks disappear underneath it. Delete is
// idempotent: deleting a path with no file record still walks (and finds
// nothing in) the chunk range, and returns successfully.
func (e *Engine) Delete(ctx context.Context, opts ReadOptions) (*inflight.FileStatus, bool, error) {
	uri := e.codec.Encode(opts.Path)

	if st, inFlight := e.inf.Status(uri); inFlight {
		return &st, false, nil
	}

	if !checkAccess(opts.ValidateAccess, opts.Path) {
		st := e.emitError(uri, opts.Path, ErrForbidden, "Forbidden")
		return &st, false, nil
	}

	started, status, clientCount := e.inf.StartDeleting(uri, opts.Path, opts.ClientID)
	if !started {
		return &status, false, nil
	}

	if opts.MaxClientIDConcurrentReqs > 0 && clientCount > opts.MaxClientIDConcurrentReqs {
		e.inf.EndDeleting(uri, opts.ClientID)
		st := e.emitError(uri, opts.Path, ErrConcurrencyCap,
			fmt.Sprintf("You can only make a maximum of %d concurrent requests", opts.MaxClientIDConcurrentReqs))
		return &st, false, nil
	}

	if err := e.putUnresolved(ctx, uri, opts.Path, opts.ClientID); err != nil {
		e.inf.EndDeleting(uri, opts.ClientID)
		st := e.emitError(uri, opts.Path, ErrSubstrate, err.Error())
		return &st, false, nil
	}

	e.mx.InFlight.WithLabelValues("deleting").Inc()
	err := e.runDelete(ctx, uri, opts)
	e.mx.InFlight.WithLabelValues("deleting").Dec()

	if err != nil {
		e.inf.EndDeleting(uri, opts.ClientID)
		e.mx.DeletesTotal.WithLabelValues("error").Inc()
		st := e.emitError(uri, opts.Path, ErrSubstrate, err.Error())
		return &st, false, nil
	}

	e.inf.EndDeleting(uri, opts.ClientID)
	if err := e.deleteUnresolved(ctx, uri); err != nil {
		e.log.Warn("delete: failed to clear unresolved marker", zap.String("uri", uri), zap.Error(err))
	}
	e.mx.DeletesTotal.WithLabelValues("ok").Inc()
	return nil, true, nil
}

func (e *Engine) runDelete(ctx context.Context, uri string, opts ReadOptions) error {
	if err := e.sub.Delete(ctx, fileKey(opts.Path)); err != nil {
		return err
	}

	lim := ratelimit.New(opts.ChunksPerSecond)
	it := pager.New(e.sub, kvPrefixParams(chunkPrefix(uri)), retractPageSize)

	var deleted int64
	for {
		page, ok, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := e.sub.Delete(ctx, page.Entry.Key); err != nil {
			return err
		}
		deleted += int64(len(page.Entry.Value))
		e.mx.BytesDeleted.Add(float64(len(page.Entry.Value)))
		e.inf.SetProgress(uri, inflight.StatusDeleting, deleted)

		rolled, tickErr := lim.Tick(ctx)
		if tickErr != nil {
			return tickErr
		}
		if rolled {
			e.sink.Emit(inflight.FileStatus{URIComponent: uri, Path: opts.Path, Progress: deleted, Status: "deleting"})
		}
	}

	e.sink.Emit(inflight.FileStatus{URIComponent: uri, Path: opts.Path, Progress: deleted, Status: "deleting"})
	return nil
}

// DeleteDir deletes every file record under opts.Path's prefix, rate-limited
// by directory entry, and returns the FileStatus (if any) each individual
// Delete produced. It does not recurse into a separate tree structure — the
// flat KV prefix already enumerates all descendants.
func (e *Engine) DeleteDir(ctx context.Context, opts ReadOptions) ([]inflight.FileStatus, error) {
	if !checkAccess(opts.ValidateAccess, opts.Path) {
		uri := e.codec.Encode(opts.Path)
		st := e.emitError(uri, opts.Path, ErrForbidden, "Forbidden")
		return []inflight.FileStatus{st}, nil
	}

	lim := ratelimit.New(opts.MaxDirEntriesPerSecond)
	it := pager.New(e.sub, kvPrefixParams(filePrefix(opts.Path)), DefaultReadDirPageSize)

	var statuses []inflight.FileStatus
	for {
		page, ok, err := it.Next(ctx)
		if err != nil {
			return statuses, err
		}
		if !ok {
			break
		}
		rec, err := unmarshalFile(page.Entry.Value)
		if err != nil {
			return statuses, err
		}
		st, _, err := e.Delete(ctx, ReadOptions{
			Path:                      rec.Path,
			ChunksPerSecond:           opts.ChunksPerSecond,
			ClientID:                  opts.ClientID,
			ValidateAccess:            opts.ValidateAccess,
			MaxClientIDConcurrentReqs: opts.MaxClientIDConcurrentReqs,
		})
		if err != nil {
			return statuses, err
		}
		if st != nil {
			statuses = append(statuses, *st)
		}

		if _, tickErr := lim.Tick(ctx); tickErr != nil {
			return statuses, tickErr
		}
	}
	return statuses, nil
}

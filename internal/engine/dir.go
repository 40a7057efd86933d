package engine

import (
	"context"

	"github.com/zynqcloud/kvfs/internal/inflight"
	"github.com/zynqcloud/kvfs/internal/pager"
	"github.com/zynqcloud/kvfs/internal/ratelimit"
)

// ReadDir lists files under opts.Path, paginating in pages of
// DefaultReadDirPageSize and rate-limiting by MaxDirEntriesPerSecond. An
// entry currently saving or deleting contributes its FileStatus instead of
// a record; a saving entry's in-progress bytes are folded into the returned
// Size total, an in-progress delete's bytes are not (spec.md §9 open
// question 4, kept as specified). When opts.Pagination is set and a full
// page is filled, the scan stops early and Cursor carries the resumption
// point for the next call.
func (e *Engine) ReadDir(ctx context.Context, opts ReadOptions) (*DirList, error) {
	if !checkAccess(opts.ValidateAccess, opts.Path) {
		uri := e.codec.Encode(opts.Path)
		st := e.emitError(uri, opts.Path, ErrForbidden, "Forbidden")
		return &DirList{Entries: []DirEntry{{Status: &st}}}, nil
	}

	lim := ratelimit.New(opts.MaxDirEntriesPerSecond)

	params := kvPrefixParams(filePrefix(opts.Path))
	params.Cursor = opts.Cursor
	it := pager.New(e.sub, params, DefaultReadDirPageSize)

	out := &DirList{}
	count := 0
	for {
		page, ok, err := it.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			break
		}

		rec, err := unmarshalFile(page.Entry.Value)
		if err != nil {
			return out, err
		}

		if st, inFlight := e.inf.Status(rec.URIComponent); inFlight {
			out.Entries = append(out.Entries, DirEntry{Status: &st})
			if st.Status == string(inflight.StatusSaving) {
				out.Size += st.Progress
			}
		} else {
			rec.Content = e.openContentStream(rec.URIComponent, rec.Path, ReadOptions{
				Path:                      rec.Path,
				ChunksPerSecond:           opts.ChunksPerSecond,
				ClientID:                  opts.ClientID,
				MaxClientIDConcurrentReqs: opts.MaxClientIDConcurrentReqs,
			})
			out.Entries = append(out.Entries, DirEntry{Record: &rec})
			out.Size += rec.Size
		}

		count++
		if _, tickErr := lim.Tick(ctx); tickErr != nil {
			return out, tickErr
		}

		if opts.Pagination && count >= DefaultReadDirPageSize && page.Cursor != "" {
			out.Cursor = page.Cursor
			return out, nil
		}
	}
	return out, nil
}

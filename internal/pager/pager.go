// Package pager implements a paginated iterator over a kv.Substrate scan,
// transparently re-issuing the scan with the substrate's resumption cursor
// until the range is exhausted.
package pager

import (
	"context"

	"github.com/zynqcloud/kvfs/internal/kv"
)

// Page is one externally-visible unit of iteration: an entry plus, on every
// pageSize-th entry, the cursor needed to resume the scan from just after
// it. This lets a caller (readDir, in particular) paginate across calls
// without re-issuing a fresh substrate scan itself.
type Page struct {
	Entry  kv.Entry
	Cursor string // non-empty only on every pageSize-th entry
}

// Iterator walks a prefix or range scan in order, re-issuing the underlying
// substrate scan as each batch is exhausted.
type Iterator struct {
	sub      kv.Substrate
	params   kv.ListParams
	pageSize int

	batch   []kv.Entry
	idx     int
	cursor  string
	seen    int
	done    bool
	started bool
}

// New creates an Iterator over params, fetching pageSize entries per
// underlying substrate call. A non-empty params.Cursor makes the first
// substrate call resume from that cursor.
func New(sub kv.Substrate, params kv.ListParams, pageSize int) *Iterator {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &Iterator{sub: sub, params: params, pageSize: pageSize, cursor: params.Cursor}
}

// Next returns the next Page, or ok=false once the scan is exhausted.
func (it *Iterator) Next(ctx context.Context) (Page, bool, error) {
	if it.done {
		return Page{}, false, nil
	}
	for it.idx >= len(it.batch) {
		p := it.params
		p.Limit = it.pageSize
		p.Cursor = it.cursor
		res, err := it.sub.List(ctx, p)
		if err != nil {
			return Page{}, false, err
		}
		it.batch = res.Entries
		it.idx = 0
		it.cursor = res.Cursor
		it.started = true
		if len(it.batch) == 0 {
			it.done = true
			return Page{}, false, nil
		}
		if it.cursor == "" {
			// This is the final underlying batch; Next calls will drain it
			// then report done.
		}
	}
	e := it.batch[it.idx]
	it.idx++
	it.seen++

	page := Page{Entry: e}
	atBoundary := it.seen%it.pageSize == 0
	exhaustedBatch := it.idx == len(it.batch)
	if atBoundary {
		if exhaustedBatch {
			page.Cursor = it.cursor
		} else {
			// A boundary that falls mid-batch can still happen if pageSize
			// doesn't evenly divide a substrate page; expose the
			// underlying cursor as the resumption point regardless.
			page.Cursor = it.cursor
		}
	}
	if exhaustedBatch && it.cursor == "" {
		it.done = true
	}
	return page, true, nil
}

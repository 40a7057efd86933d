package engine

import (
	"context"
	"io"

	"github.com/zynqcloud/kvfs/internal/inflight"
	"github.com/zynqcloud/kvfs/internal/pager"
	"github.com/zynqcloud/kvfs/internal/ratelimit"
)

// Read returns the file record at opts.Path with a lazily-pulled Content
// stream attached, or nil if no such file exists. If a save or delete is
// currently in flight for the path, it returns that FileStatus instead of
// the record — even if a prior version of the file exists in the substrate
// (spec.md §9 open question 2, kept as specified).
func (e *Engine) Read(ctx context.Context, opts ReadOptions) (*FileRecord, *inflight.FileStatus, error) {
	uri := e.codec.Encode(opts.Path)

	if st, inFlight := e.inf.Status(uri); inFlight {
		return nil, &st, nil
	}

	if !checkAccess(opts.ValidateAccess, opts.Path) {
		st := e.emitError(uri, opts.Path, ErrForbidden, "Forbidden")
		return nil, &st, nil
	}

	v, found, err := e.sub.Get(ctx, fileKey(opts.Path))
	if err != nil {
		st := e.emitError(uri, opts.Path, ErrSubstrate, err.Error())
		return nil, &st, nil
	}
	if !found {
		e.mx.ReadsTotal.WithLabelValues("not_found").Inc()
		return nil, nil, nil
	}

	rec, err := unmarshalFile(v)
	if err != nil {
		st := e.emitError(uri, opts.Path, ErrSubstrate, err.Error())
		return nil, &st, nil
	}

	rec.Content = e.openContentStream(uri, rec.Path, opts)
	e.mx.ReadsTotal.WithLabelValues("ok").Inc()
	return &rec, nil, nil
}

// openContentStream builds a pull-driven reader over the chunk records for
// uri. It only touches the substrate and registry state when the caller
// actually reads from it — constructing the FileRecord never itself
// triggers I/O beyond the single Get above.
func (e *Engine) openContentStream(uri string, path []string, opts ReadOptions) io.ReadCloser {
	return &contentStream{
		eng:  e,
		uri:  uri,
		path: path,
		opts: opts,
	}
}

// contentStream implements io.ReadCloser by walking chunk records in index
// order via a KvPager, rate-limited per chunk. The per-client concurrency
// slot is acquired on first Read and released on Close or on any error —
// mirroring spec.md §4.6's "on first pull, increments clientReqs" rule.
type contentStream struct {
	eng  *Engine
	uri  string
	path []string
	opts ReadOptions

	it          *pager.Iterator
	lim         *ratelimit.Limiter
	acquired    bool
	cur         []byte
	closed      bool
	streamErr   error
}

func (c *contentStream) Read(p []byte) (int, error) {
	if c.closed {
		return 0, io.ErrClosedPipe
	}
	if c.streamErr != nil {
		return 0, c.streamErr
	}
	if !c.acquired {
		n := c.eng.inf.AcquireClientSlot(c.opts.ClientID)
		c.acquired = true
		if c.opts.MaxClientIDConcurrentReqs > 0 && c.opts.ClientID != "" && n > c.opts.MaxClientIDConcurrentReqs {
			c.eng.inf.ReleaseClientSlot(c.opts.ClientID)
			c.streamErr = errConcurrencyCap
			return 0, c.streamErr
		}
		c.it = pager.New(c.eng.sub, kvPrefixParams(chunkPrefix(c.uri)), DefaultReadDirPageSize)
		c.lim = ratelimit.New(c.opts.ChunksPerSecond)
	}

	for len(c.cur) == 0 {
		page, ok, err := c.it.Next(context.Background())
		if err != nil {
			c.eng.inf.ReleaseClientSlot(c.opts.ClientID)
			c.streamErr = err
			return 0, err
		}
		if !ok {
			c.eng.inf.ReleaseClientSlot(c.opts.ClientID)
			c.streamErr = io.EOF
			return 0, io.EOF
		}
		c.cur = page.Entry.Value
		c.eng.mx.ChunksRead.Inc()
		c.eng.mx.BytesRead.Add(float64(len(page.Entry.Value)))
		if _, err := c.lim.Tick(context.Background()); err != nil {
			c.eng.inf.ReleaseClientSlot(c.opts.ClientID)
			c.streamErr = err
			return 0, err
		}
	}

	n := copy(p, c.cur)
	c.cur = c.cur[n:]
	return n, nil
}

func (c *contentStream) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.acquired && c.streamErr == nil {
		c.eng.inf.ReleaseClientSlot(c.opts.ClientID)
	}
	return nil
}

var errConcurrencyCap = ioEOFLike("concurrency cap exceeded for read stream")

type ioEOFLike string

func (e ioEOFLike) Error() string { return string(e) }

// Package progress holds the single user-supplied callback the storage
// engine emits FileStatus snapshots through. Fan-out to multiple consumers
// is the host's problem — a trivial wrapper callback that forwards to
// several sinks is all that's needed, so the engine only ever holds one.
package progress

import "github.com/zynqcloud/kvfs/internal/inflight"

// Func receives one FileStatus event at a time. It must not block for long;
// the engine calls it synchronously from the goroutine driving the
// operation, so a slow sink throttles that operation's own throughput.
type Func func(inflight.FileStatus)

// Sink wraps an assignable Func, defaulting to a no-op so the engine never
// needs a nil check on the hot path.
type Sink struct {
	fn Func
}

// Set installs fn as the active callback. A nil fn reverts to the no-op.
func (s *Sink) Set(fn Func) {
	s.fn = fn
}

// Emit invokes the active callback, if any.
func (s *Sink) Emit(status inflight.FileStatus) {
	if s.fn != nil {
		s.fn(status)
	}
}

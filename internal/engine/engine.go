package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/zynqcloud/kvfs/internal/inflight"
	"github.com/zynqcloud/kvfs/internal/kv"
	"github.com/zynqcloud/kvfs/internal/metrics"
	"github.com/zynqcloud/kvfs/internal/pathcodec"
	"github.com/zynqcloud/kvfs/internal/progress"
)

// Engine is the StorageEngine: it orchestrates Save, Read, Delete, ReadDir,
// DeleteDir, GetMetadata and SetMetadata over a kv.Substrate.
type Engine struct {
	sub    kv.Substrate
	codec  *pathcodec.Codec
	inf    *inflight.Registry
	sink   progress.Sink
	log    *zap.Logger
	mx     *metrics.Metrics
	closed atomic.Bool
}

// New constructs an Engine over sub. It does not start the recovery sweep —
// call Recover (see recovery.go) once construction is complete, the way the
// teacher's cleanup.RunPeriodic is started explicitly from cmd/server.
func New(sub kv.Substrate, log *zap.Logger, mx *metrics.Metrics) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if mx == nil {
		mx = metrics.New()
	}
	return &Engine{
		sub:   sub,
		codec: pathcodec.New(),
		inf:   inflight.New(),
		log:   log,
		mx:    mx,
	}
}

// OnFileProgress installs the single process-wide progress callback.
func (e *Engine) OnFileProgress(fn progress.Func) {
	e.sink.Set(fn)
}

// PathToURIComponent exposes PathCodec.Encode on the call surface.
func (e *Engine) PathToURIComponent(path []string) string {
	return e.codec.Encode(path)
}

// URIComponentToPath exposes PathCodec.Decode on the call surface.
func (e *Engine) URIComponentToPath(uri string) ([]string, error) {
	return e.codec.Decode(uri)
}

// GetClientReqs returns the current in-flight count for clientID.
func (e *Engine) GetClientReqs(clientID string) int {
	return e.inf.ClientReqs(clientID)
}

// GetAllFileStatuses returns a snapshot of every in-flight save/delete.
func (e *Engine) GetAllFileStatuses() []inflight.FileStatus {
	return e.inf.AllStatuses()
}

// Close releases the underlying substrate.
func (e *Engine) Close() error {
	e.closed.Store(true)
	return e.sub.Close()
}

func errStatus(uri string, path []string, kind ErrorKind, msg string) inflight.FileStatus {
	return inflight.FileStatus{
		URIComponent: uri,
		Path:         path,
		Status:       "error",
		Msg:          msg,
	}
}

func (e *Engine) emitError(uri string, path []string, kind ErrorKind, msg string) inflight.FileStatus {
	st := errStatus(uri, path, kind, msg)
	e.log.Warn("engine error", zap.String("uri", uri), zap.String("kind", string(kind)), zap.String("msg", msg))
	e.sink.Emit(st)
	e.mx.Errors.WithLabelValues(string(kind)).Inc()
	return st
}

func checkAccess(pred AccessPredicate, path []string) bool {
	if pred == nil {
		return true
	}
	return pred(path)
}

func metadataSize(meta map[string]any) (int, error) {
	if meta == nil {
		return 0, nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// unresolvedPayload is the durable value stored at the unresolved marker —
// enough to resume a Delete for uri if the process crashes mid-save or
// mid-delete. Streams and callbacks are elided, matching spec.md §3's
// "Unresolved marker" definition.
type unresolvedPayload struct {
	Path     []string `json:"path"`
	ClientID string   `json:"clientId,omitempty"`
}

func (e *Engine) putUnresolved(ctx context.Context, uri string, path []string, clientID string) error {
	v, err := json.Marshal(unresolvedPayload{Path: path, ClientID: clientID})
	if err != nil {
		return fmt.Errorf("engine: marshal unresolved marker: %w", err)
	}
	return e.sub.Set(ctx, unresolvedKey(uri), v)
}

func (e *Engine) deleteUnresolved(ctx context.Context, uri string) error {
	return e.sub.Delete(ctx, unresolvedKey(uri))
}

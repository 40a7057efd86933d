// Package httpapi exposes the storage engine over HTTP, the way the
// teacher's internal/handler exposed its upload/download store — one thin
// Handler wired up in New, auth + logging + a concurrency cap applied the
// same way, routes registered on a Go 1.22 method+path ServeMux.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zynqcloud/kvfs/internal/config"
	"github.com/zynqcloud/kvfs/internal/engine"
	"github.com/zynqcloud/kvfs/internal/health"
	"github.com/zynqcloud/kvfs/internal/metrics"
	"github.com/zynqcloud/kvfs/internal/middleware"
)

// Handler holds the shared dependencies every route needs.
type Handler struct {
	cfg *config.Config
	eng *engine.Engine
	log *zap.Logger
	mx  *metrics.Metrics
}

// New registers every route and returns the root http.Handler.
//
// Middleware stack (outer → inner):
//
//	RequestLog → ServeMux → ServiceToken auth → RequestLimiter → route handler
func New(cfg *config.Config, eng *engine.Engine, log *zap.Logger, mx *metrics.Metrics) http.Handler {
	h := &Handler{cfg: cfg, eng: eng, log: log, mx: mx}

	auth := middleware.ServiceToken(cfg.ServiceToken)
	logMW := middleware.RequestLog(log)
	limiter := middleware.NewUploadLimiter(cfg.MaxConcurrentRequests)

	mux := http.NewServeMux()

	// ── File operations ──────────────────────────────────────────────────
	// POST   /v1/files  — save (streamed request body is the content)
	// GET    /v1/files  — read (streamed response body is the content)
	// DELETE /v1/files  — delete
	mux.Handle("POST /v1/files", auth(limiter.Limit(http.HandlerFunc(h.Save))))
	mux.Handle("GET /v1/files", auth(http.HandlerFunc(h.Read)))
	mux.Handle("DELETE /v1/files", auth(http.HandlerFunc(h.Delete)))

	// ── Directory operations ─────────────────────────────────────────────
	// GET    /v1/dir  — paginated listing
	// DELETE /v1/dir  — recursive delete
	mux.Handle("GET /v1/dir", auth(http.HandlerFunc(h.ReadDir)))
	mux.Handle("DELETE /v1/dir", auth(http.HandlerFunc(h.DeleteDir)))

	// ── Metadata ──────────────────────────────────────────────────────────
	mux.Handle("GET /v1/metadata", auth(http.HandlerFunc(h.GetMetadata)))
	mux.Handle("PUT /v1/metadata", auth(http.HandlerFunc(h.SetMetadata)))

	// ── Observability ─────────────────────────────────────────────────────
	// GET /health        — liveness: fast 200 while the process is alive.
	// GET /healthz/ready — readiness: disk space on the bolt/dir substrate path.
	// GET /metrics       — prometheus scrape endpoint, unauthenticated like
	//                      the rest of the pack's metrics routes (scraped
	//                      from inside the cluster, not the public internet).
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /healthz/ready", auth(http.HandlerFunc(h.Readiness)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(mx.Registry, promhttp.HandlerOpts{}))

	return withRequestID(logMW(mux))
}

// withRequestID stamps every response with X-Request-ID, echoing the
// caller's own header when present so a request can be traced end to end
// across a load balancer and this service's access log.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := requestID(r)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// Readiness checks that the substrate's backing disk has room left, mirroring
// the teacher's Handler.Readiness disk-space probe.
func (h *Handler) Readiness(w http.ResponseWriter, _ *http.Request) {
	if h.cfg.SubstrateDiskPath == "" {
		writeJSON(w, http.StatusOK, map[string]any{"ready": true, "checks": []health.Check{}})
		return
	}
	check := health.DiskSpace(h.cfg.SubstrateDiskPath, h.cfg.MinFreeBytes)
	status := http.StatusOK
	if !check.OK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"ready": check.OK, "checks": []health.Check{check}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

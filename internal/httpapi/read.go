package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/zynqcloud/kvfs/internal/engine"
)

// Read handles GET /v1/files: streams the reassembled content directly as
// the response body, with the file's metadata carried in response headers
// rather than a JSON envelope — so the body is pure content, pullable with
// any HTTP client.
func (h *Handler) Read(w http.ResponseWriter, r *http.Request) {
	path := pathParam(r)
	if len(path) == 0 {
		writeError(w, http.StatusBadRequest, "missing path")
		return
	}

	opts := engine.ReadOptions{
		Path:                      path,
		ChunksPerSecond:           headerOrDefault(r, "X-Chunks-Per-Second", h.cfg.DefaultChunksPerSecond),
		ClientID:                  clientID(r),
		MaxClientIDConcurrentReqs: intHeader(r, "X-Max-Client-Concurrent-Reqs"),
	}

	rec, status, err := h.eng.Read(r.Context(), opts)
	if err != nil {
		h.log.Error("read", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if status != nil {
		writeStatus(w, *status)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	defer rec.Content.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-File-Size", strconv.FormatInt(rec.Size, 10))
	w.Header().Set("X-URI-Component", rec.URIComponent)
	if _, err := io.Copy(w, rec.Content); err != nil {
		h.log.Warn("read: stream interrupted", zap.Error(err))
	}
}

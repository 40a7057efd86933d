package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zynqcloud/kvfs/internal/engine"
)

// Save handles POST /v1/files: the request body, streamed without
// buffering, becomes the file's content.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	path := pathParam(r)
	if len(path) == 0 {
		writeError(w, http.StatusBadRequest, "missing path")
		return
	}

	var meta map[string]any
	if raw := r.Header.Get("X-Metadata"); raw != "" {
		if err := decodeMetadata(raw, &meta); err != nil {
			writeError(w, http.StatusBadRequest, "malformed X-Metadata: "+err.Error())
			return
		}
	}

	opts := engine.SaveOptions{
		Path:                      path,
		Content:                   engine.Content{Stream: r.Body},
		Metadata:                  meta,
		ChunksPerSecond:           headerOrDefault(r, "X-Chunks-Per-Second", h.cfg.DefaultChunksPerSecond),
		ClientID:                  clientID(r),
		MaxClientIDConcurrentReqs: intHeader(r, "X-Max-Client-Concurrent-Reqs"),
		MaxFileSizeBytes:          int64Header(r, "X-Max-File-Size-Bytes"),
		AllowedExtensions:         listHeader(r, "X-Allowed-Extensions"),
	}

	rec, status, err := h.eng.Save(r.Context(), opts)
	if err != nil {
		h.log.Error("save", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if status != nil {
		writeStatus(w, *status)
		return
	}
	writeJSON(w, http.StatusOK, recordView(rec, false))
}

func headerOrDefault(r *http.Request, name string, def int) int {
	if n := intHeader(r, name); n != 0 {
		return n
	}
	return def
}

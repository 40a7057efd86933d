package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zynqcloud/kvfs/internal/engine"
)

// Delete handles DELETE /v1/files.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
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

	status, ok, err := h.eng.Delete(r.Context(), opts)
	if err != nil {
		h.log.Error("delete", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if status != nil {
		writeStatus(w, *status)
		return
	}
	if ok {
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
		return
	}
	writeError(w, http.StatusInternalServerError, "delete failed")
}

// DeleteDir handles DELETE /v1/dir.
func (h *Handler) DeleteDir(w http.ResponseWriter, r *http.Request) {
	path := pathParam(r)

	opts := engine.ReadOptions{
		Path:                   path,
		ChunksPerSecond:        headerOrDefault(r, "X-Chunks-Per-Second", h.cfg.DefaultChunksPerSecond),
		MaxDirEntriesPerSecond: headerOrDefault(r, "X-Max-Dir-Entries-Per-Second", h.cfg.DefaultMaxDirEntriesPerSecond),
		ClientID:               clientID(r),
	}

	statuses, err := h.eng.DeleteDir(r.Context(), opts)
	if err != nil {
		h.log.Error("deleteDir", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	views := make([]statusView, 0, len(statuses))
	for _, st := range statuses {
		views = append(views, statusView{
			URIComponent: st.URIComponent, Path: st.Path, Progress: st.Progress, Status: st.Status, Msg: st.Msg,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"statuses": views})
}

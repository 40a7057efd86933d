package httpapi

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/zynqcloud/kvfs/internal/engine"
)

type dirEntryView struct {
	Record *fileRecordView `json:"record,omitempty"`
	Status *statusView     `json:"status,omitempty"`
}

// ReadDir handles GET /v1/dir. Listed records never carry content inline —
// a caller that wants bytes follows up with GET /v1/files for the entry's
// path, the same "list first, stream second" split the pack's object-store
// examples use for large directories.
func (h *Handler) ReadDir(w http.ResponseWriter, r *http.Request) {
	path := pathParam(r)

	opts := engine.ReadOptions{
		Path:                   path,
		ChunksPerSecond:        headerOrDefault(r, "X-Chunks-Per-Second", h.cfg.DefaultChunksPerSecond),
		MaxDirEntriesPerSecond: headerOrDefault(r, "X-Max-Dir-Entries-Per-Second", h.cfg.DefaultMaxDirEntriesPerSecond),
		ClientID:               clientID(r),
		Pagination:             r.URL.Query().Get("pagination") == "1",
		Cursor:                 r.URL.Query().Get("cursor"),
	}

	list, err := h.eng.ReadDir(r.Context(), opts)
	if err != nil {
		h.log.Error("readDir", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	views := make([]dirEntryView, 0, len(list.Entries))
	for _, e := range list.Entries {
		switch {
		case e.Record != nil:
			rv := recordView(e.Record, e.Record.Content != nil)
			if e.Record.Content != nil {
				e.Record.Content.Close()
			}
			views = append(views, dirEntryView{Record: &rv})
		case e.Status != nil:
			sv := statusView{
				URIComponent: e.Status.URIComponent, Path: e.Status.Path,
				Progress: e.Status.Progress, Status: e.Status.Status, Msg: e.Status.Msg,
			}
			views = append(views, dirEntryView{Status: &sv})
		}
	}

	w.Header().Set("X-Total-Size", strconv.FormatInt(list.Size, 10))
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": views,
		"size":    list.Size,
		"cursor":  list.Cursor,
	})
}

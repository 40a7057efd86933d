package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/zynqcloud/kvfs/internal/engine"
	"github.com/zynqcloud/kvfs/internal/inflight"
)

func decodeMetadata(raw string, out *map[string]any) error {
	return json.Unmarshal([]byte(raw), out)
}

// fileRecordView is the wire shape for a FileRecord. Content is never
// inlined here — callers that want bytes hit GET /v1/files, which streams
// the body directly instead of base64-wrapping it in JSON.
type fileRecordView struct {
	Path         []string       `json:"path"`
	Size         int64          `json:"size"`
	Flags        []string       `json:"flags,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	URIComponent string         `json:"uriComponent"`
	HasContent   bool           `json:"hasContent"`
}

func recordView(rec *engine.FileRecord, hasContent bool) fileRecordView {
	if rec == nil {
		return fileRecordView{}
	}
	return fileRecordView{
		Path:         rec.Path,
		Size:         rec.Size,
		Flags:        rec.Flags,
		Metadata:     rec.Metadata,
		URIComponent: rec.URIComponent,
		HasContent:   hasContent,
	}
}

// statusView is the wire shape for inflight.FileStatus.
type statusView struct {
	URIComponent string `json:"uriComponent"`
	Path         []string `json:"path"`
	Progress     int64  `json:"progress"`
	Status       string `json:"status"`
	Msg          string `json:"msg,omitempty"`
}

func writeStatus(w http.ResponseWriter, st inflight.FileStatus) {
	code := http.StatusConflict
	if st.Status == "error" {
		code = http.StatusBadRequest
	}
	writeJSON(w, code, statusView{
		URIComponent: st.URIComponent,
		Path:         st.Path,
		Progress:     st.Progress,
		Status:       st.Status,
		Msg:          st.Msg,
	})
}

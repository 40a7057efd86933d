package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// GetMetadata handles GET /v1/metadata.
func (h *Handler) GetMetadata(w http.ResponseWriter, r *http.Request) {
	path := pathParam(r)
	if len(path) == 0 {
		writeError(w, http.StatusBadRequest, "missing path")
		return
	}
	meta, err := h.eng.GetMetadata(r.Context(), path)
	if err != nil {
		h.log.Error("getMetadata", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"metadata": meta})
}

// SetMetadata handles PUT /v1/metadata: the JSON body is the new metadata
// object, replacing whatever metadata the file currently carries.
func (h *Handler) SetMetadata(w http.ResponseWriter, r *http.Request) {
	path := pathParam(r)
	if len(path) == 0 {
		writeError(w, http.StatusBadRequest, "missing path")
		return
	}
	var meta map[string]any
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	if err := h.eng.SetMetadata(r.Context(), path, meta); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

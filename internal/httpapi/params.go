package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// pathParam splits the "path" query parameter on "/" into segments, the
// wire form of the path []string the engine expects. A leading/trailing
// slash and repeated slashes are tolerated and collapsed away.
func pathParam(r *http.Request) []string {
	raw := r.URL.Query().Get("path")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func clientID(r *http.Request) string {
	return r.Header.Get("X-Client-ID")
}

// requestID returns the caller-supplied X-Request-ID, or mints a fresh UUID
// when the caller didn't send one — every access log line gets a stable ID
// to grep for even from anonymous clients.
func requestID(r *http.Request) string {
	if v := r.Header.Get("X-Request-ID"); v != "" {
		return v
	}
	return uuid.NewString()
}

func intHeader(r *http.Request, name string) int {
	v := r.Header.Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func int64Header(r *http.Request, name string) int64 {
	v := r.Header.Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func listHeader(r *http.Request, name string) []string {
	v := r.Header.Get(name)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

package middleware

import (
	"crypto/subtle"
	"net/http"
)

// ServiceToken returns middleware that gates the Save/Read/Delete/ReadDir/
// DeleteDir/Metadata routes behind the X-Service-Token header, the same
// shared-secret scheme a sidecar or internal caller presents on every call.
// If token is empty (cfg.ServiceToken unset — dev mode), every request is
// let through unauthenticated; main.go logs a warning when it starts up
// that way so an empty token in production doesn't go unnoticed silently.
func ServiceToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			provided := r.Header.Get("X-Service-Token")
			// Constant-time compare to prevent timing attacks.
			if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized"}`)) //nolint:errcheck
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

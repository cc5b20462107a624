// Package admin gates management endpoints behind an API key. The key is
// stored as a bcrypt hash so the plaintext never lives in configuration.
package admin

import (
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"trustgate/internal/platform/secrets"
)

// RequireAdminKey compares the X-Admin-Key header against the bcrypt hash of
// the configured admin key. An empty hash disables the endpoints entirely.
func RequireAdminKey(keyHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := r.Header.Get("X-Admin-Key")
			if keyHash == "" || key == "" || secrets.Verify(key, keyHash) != nil {
				logger.WarnContext(ctx, "admin key rejected",
					"request_id", chimiddleware.GetReqID(ctx))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin key required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

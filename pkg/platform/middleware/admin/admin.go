package admin

import (
	"log/slog"
	"net/http"

	"verigate/pkg/requestcontext"
)

// HeaderAPIKey is the header carrying a privileged key; QueryAPIKey is the fallback query parameter.
const (
	HeaderAPIKey = "X-Admin-API-Key"
	QueryAPIKey  = "api_key"
)

// KeyChecker reports whether a presented key belongs to the privileged set.
// Implementations must compare in constant time.
type KeyChecker interface {
	IsPrivileged(key string) bool
}

// RequireAPIKey gates a route on a privileged key taken from the header or,
// failing that, the api_key query parameter. Rejections carry no data.
func RequireAPIKey(keys KeyChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(HeaderAPIKey)
			if key == "" {
				key = r.URL.Query().Get(QueryAPIKey)
			}
			if key == "" || !keys.IsPrivileged(key) {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin key rejected",
					"request_id", requestcontext.RequestID(ctx),
					"key_present", key != "",
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin API key required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"
	"slices"
	"strings"
)

const (
	corsMethods = "GET, POST, DELETE, OPTIONS"
	corsHeaders = "Accept, Content-Type"
	// Location carries the id of a freshly created session.
	corsExposed = "Location"
)

// CORS lets browser editors call the API. An empty allowlist accepts any
// origin; otherwise requests from unlisted origins get no CORS headers and
// their preflights are refused.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAny := len(allowedOrigins) == 0
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			if origin != "" {
				w.Header().Add("Vary", "Origin")
				if !allowAny && !slices.Contains(allowedOrigins, origin) {
					if preflight {
						w.WriteHeader(http.StatusForbidden)
						return
					}
					next.ServeHTTP(w, r)
					return
				}
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Expose-Headers", corsExposed)
			}
			if preflight {
				w.Header().Set("Access-Control-Allow-Methods", corsMethods)
				w.Header().Set("Access-Control-Allow-Headers", corsHeaders)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

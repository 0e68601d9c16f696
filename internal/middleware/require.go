package middleware

import (
	"net/http"

	"github.com/reelist/reelist/internal/auth"
)

// RequireUser rejects requests without an authenticated user.
// Must be applied after Auth or OptionalAuth.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.UserIDFromContext(r.Context()) == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

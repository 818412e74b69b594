package middleware

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/Strob0t/crm/internal/domain/user"
)

// RequireRole lets through only identities holding one of roles. It must run
// after Auth: a request without an identity gets 401, a wrong role 403.
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFromContext(r.Context())
			switch {
			case id == nil:
				writeError(w, http.StatusUnauthorized, "authorization required")
			case !slices.Contains(roles, id.Role):
				slog.WarnContext(r.Context(), "role denied", "path", r.URL.Path, "role", id.Role)
				writeError(w, http.StatusForbidden, "forbidden")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Strob0t/crm/internal/domain/user"
	"github.com/Strob0t/crm/internal/logger"
)

type identityCtxKey struct{}

// TokenVerifier decodes a bearer token into the identity it was issued for.
type TokenVerifier interface {
	ValidateToken(token string) (*user.Identity, error)
}

// Auth returns middleware that requires a valid "Authorization: Bearer <token>"
// header and stores the decoded identity in the request context.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "authorization required")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			id, err := verifier.ValidateToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := logger.WithUserID(WithIdentity(r.Context(), id), id.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id *user.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext returns the authenticated identity, or nil on public routes.
func IdentityFromContext(ctx context.Context) *user.Identity {
	id, _ := ctx.Value(identityCtxKey{}).(*user.Identity)
	return id
}

// writeError writes a {"error": msg} JSON body.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/edvin/dbvault/internal/api/response"
	"github.com/edvin/dbvault/internal/core"
)

type contextKey string

const IdentityKey contextKey = "token_identity"

// Identity holds the authenticated token's ID and owning user.
type Identity struct {
	TokenID string
	UserID  string
}

// Auth returns a middleware that validates the Authorization bearer token
// against the api_tokens table. Requests are rejected before any core logic
// runs.
func Auth(tokens *core.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				response.WriteError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			token, err := tokens.Authenticate(r.Context(), raw)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}

			identity := &Identity{TokenID: token.ID, UserID: token.UserID}
			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom extracts the authenticated identity from a request context.
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*Identity)
	return identity, ok
}

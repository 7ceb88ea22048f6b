package httpapi

import (
	"context"
	"net/http"
	"strings"

	"peerchat/contract"
	"peerchat/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// BearerAuth validates the Authorization header with the same token
// validator the websocket handshake uses and injects the identity into
// the request context for downstream handlers.
func BearerAuth(validator contract.TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			if raw == "" || !strings.HasPrefix(raw, "Bearer ") {
				http.Error(w, "missing bearer credential", http.StatusUnauthorized)
				return
			}

			identity, err := validator.Validate(strings.TrimPrefix(raw, "Bearer "))
			if err != nil {
				http.Error(w, "invalid bearer credential", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// identityFrom returns the identity the middleware stored.
func identityFrom(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(domain.Identity)
	return identity, ok
}

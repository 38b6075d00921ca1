package middleware

import (
	"context"
	"net/http"
	"strings"

	"peopledesk/internal/domain/auth"
	"peopledesk/internal/domain/authz"
	"peopledesk/internal/platform/requestctx"
	"peopledesk/internal/transport/http/api"
)

type claimsKey struct{}

// SessionChecker reports whether the presented token still maps to a live
// session. Implemented by the auth store.
type SessionChecker interface {
	SessionValid(ctx context.Context, userID, tokenHash string) (bool, error)
}

// Authenticate verifies the bearer token and attaches the session claims to
// the request context. Requests without a valid token are rejected before
// the handler runs.
func Authenticate(secret string, sessions SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				api.FailWith(w, authz.ErrUnauthenticated, requestctx.GetRequestID(r.Context()))
				return
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims, err := auth.ParseToken(secret, raw)
			if err != nil {
				api.FailWith(w, authz.ErrUnauthenticated, requestctx.GetRequestID(r.Context()))
				return
			}

			if sessions != nil {
				ok, err := sessions.SessionValid(r.Context(), claims.UserID, auth.HashToken(raw))
				if err != nil {
					api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
					return
				}
				if !ok {
					api.FailWith(w, authz.ErrUnauthenticated, requestctx.GetRequestID(r.Context()))
					return
				}
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims returns the session claims stored by Authenticate, or nil when
// the request is unauthenticated.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims
}

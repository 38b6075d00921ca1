package middleware

import (
	"net/http"
	"slices"

	"peopledesk/internal/domain/authz"
	"peopledesk/internal/platform/requestctx"
	"peopledesk/internal/transport/http/api"
)

// RequireRole gates a route to the given roles. It must run after
// RequirePrincipal.
func RequireRole(allowed ...authz.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := GetPrincipal(r.Context())
			if !ok {
				api.FailWith(w, authz.ErrUnauthenticated, requestctx.GetRequestID(r.Context()))
				return
			}
			if !slices.Contains(allowed, principal.Role) {
				api.FailWith(w, authz.ErrForbidden, requestctx.GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"context"
	"net/http"

	"peopledesk/internal/domain/authz"
	"peopledesk/internal/platform/requestctx"
	"peopledesk/internal/transport/http/api"
)

type principalKey struct{}

// RequirePrincipal resolves the authenticated email to a live principal.
// Role and department are read from the store on every request, so a role
// change or deactivation takes effect immediately.
func RequirePrincipal(resolver *authz.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var email string
			if claims := GetClaims(r.Context()); claims != nil {
				email = claims.Email
			}

			principal, err := resolver.Resolve(r.Context(), email)
			if err != nil {
				api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
				return
			}

			ctx := context.WithValue(r.Context(), principalKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal returns the principal attached by RequirePrincipal. The bool
// is false on routes that skipped principal resolution.
func GetPrincipal(ctx context.Context) (authz.Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(authz.Principal)
	return principal, ok
}

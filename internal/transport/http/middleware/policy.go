package middleware

import (
	"net/http"
	"strings"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/policy"
)

type Authorizer interface {
	Authorize(policy string, p domain.Principal) error
}

type AuthorizerFunc func(policy string, p domain.Principal) error

func (f AuthorizerFunc) Authorize(policy string, p domain.Principal) error { return f(policy, p) }

// RequirePolicy admits the request only when the authenticated principal
// satisfies the named policy. It must run after Auth.
func RequirePolicy(authz Authorizer, policy string, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeErr(w, r, domain.ErrTokenMissing())
				return
			}

			if err := authz.Authorize(policy, p); err != nil {
				PolicyDecisionsTotal.WithLabelValues(policy, "denied").Inc()
				writeErr(w, r, err)
				return
			}

			PolicyDecisionsTotal.WithLabelValues(policy, "allowed").Inc()
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyRole is RequirePolicy for an ad-hoc policy holding one of roles.
func RequireAnyRole(writeErr WriteErrFunc, roles ...string) func(http.Handler) http.Handler {
	name := "roles(" + strings.Join(roles, ",") + ")"
	pol := policy.New(name, policy.RequireAnyRole(roles...))
	authz := AuthorizerFunc(func(_ string, p domain.Principal) error {
		return policy.Evaluate(pol, p)
	})
	return RequirePolicy(authz, name, writeErr)
}

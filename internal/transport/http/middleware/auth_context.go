package middleware

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

type ctxKey string

const ctxPrincipal ctxKey = "principal"

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipal, p)
}

func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(ctxPrincipal).(domain.Principal)
	return p, ok && p.UserID != ""
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromContext(ctx)
	return p.UserID, ok
}

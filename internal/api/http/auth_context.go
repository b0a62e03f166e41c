package httpapi

import (
	"context"

	"github.com/same-say/same-say/internal/domain/session"
)

type authContextKey string

const authSessionKey authContextKey = "authSession"

func withSession(ctx context.Context, s *session.Session) context.Context {
	if s == nil {
		return ctx
	}
	return context.WithValue(ctx, authSessionKey, s)
}

func sessionFromContext(ctx context.Context) *session.Session {
	if v, ok := ctx.Value(authSessionKey).(*session.Session); ok {
		return v
	}
	return nil
}

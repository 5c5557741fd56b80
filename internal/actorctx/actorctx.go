package actorctx

import (
	"context"

	"github.com/geocoder89/rxtrack/internal/domain/user"
)

type ctxKey struct{}

// WithUser stores the authenticated caller on ctx.
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func UserFrom(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(user.User)

	return u, ok && u.ID != ""
}

func UserIDFrom(ctx context.Context) (string, bool) {
	u, ok := UserFrom(ctx)

	return u.ID, ok
}

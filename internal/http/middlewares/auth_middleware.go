package middlewares

import (
	"context"
	"errors"
	"strings"

	"github.com/geocoder89/rxtrack/internal/actorctx"
	"github.com/geocoder89/rxtrack/internal/common"
	"github.com/geocoder89/rxtrack/internal/domain/user"
	"github.com/geocoder89/rxtrack/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// UserResolver turns a bearer token into the calling user.
type UserResolver interface {
	CurrentUser(ctx context.Context, token string) (user.User, error)
}

type AuthMiddleware struct {
	users UserResolver
}

func NewAuthMiddleware(users UserResolver) *AuthMiddleware {
	return &AuthMiddleware{users: users}
}

// RequireAuth resolves the bearer token to a live, enabled user on every request and stores it on
// the request context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			handlers.RespondUnauthorized(c, "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			handlers.RespondUnauthorized(c, "Missing or invalid access token")
			return
		}

		u, err := m.users.CurrentUser(c.Request.Context(), raw)
		if err != nil {
			if errors.Is(err, common.ErrUnauthenticated) {
				handlers.RespondUnauthorized(c, "Invalid or expired access token")
				return
			}
			handlers.RespondServiceError(c, err)
			return
		}

		c.Request = c.Request.WithContext(actorctx.WithUser(c.Request.Context(), u))

		c.Next()
	}
}

// UserIDFromContext returns the authenticated user's id, if any.
func UserIDFromContext(c *gin.Context) (string, bool) {
	return actorctx.UserIDFrom(c.Request.Context())
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/rxtrack/internal/actorctx"
	"github.com/geocoder89/rxtrack/internal/common"
	"github.com/geocoder89/rxtrack/internal/config"
	"github.com/geocoder89/rxtrack/internal/service"
	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Login(ctx context.Context, username, password string) (service.LoginResult, error)
}

// LoginObserver counts login outcomes. It may be nil.
type LoginObserver interface {
	ObserveLogin(outcome string)
}

type AuthHandler struct {
	auth Authenticator
	prom LoginObserver
}

func NewAuthHandler(auth Authenticator, prom LoginObserver) *AuthHandler {
	return &AuthHandler{auth: auth, prom: prom}
}

// Fields carry no binding tags: empty credentials are reported by the service as a missing field.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message   string    `json:"message"`
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// bcrypt dominates; leave room for it on top of the lookup
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	res, err := h.auth.Login(cctx, req.Username, req.Password)
	if err != nil {
		h.observe(loginOutcome(err))
		RespondServiceError(ctx, err)
		return
	}

	h.observe("success")

	ctx.JSON(http.StatusOK, LoginResponse{
		Message:   "Login successful",
		Username:  res.User.Username,
		Token:     res.Token,
		TokenType: "Bearer",
		ExpiresAt: res.ExpiresAt.UTC(),
	})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	u, ok := actorctx.UserFrom(ctx.Request.Context())
	if !ok {
		RespondServiceError(ctx, common.ErrUnauthenticated)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"username": u.Username})
}

func (h *AuthHandler) observe(outcome string) {
	if h.prom != nil {
		h.prom.ObserveLogin(outcome)
	}
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, common.ErrMissingField):
		return "missing_field"
	case errors.Is(err, common.ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "error"
	}
}

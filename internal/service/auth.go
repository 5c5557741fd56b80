package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/rxtrack/internal/auth"
	"github.com/geocoder89/rxtrack/internal/common"
	"github.com/geocoder89/rxtrack/internal/domain/user"
	"github.com/geocoder89/rxtrack/internal/security"
)

// UserReader is the credential store as seen by authentication.
type UserReader interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	GenerateAccessToken(userID, username string) (string, time.Time, error)
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      user.User
}

type AuthService struct {
	users  UserReader
	tokens TokenIssuer
}

func NewAuthService(users UserReader, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Login verifies the credentials and issues a token. Unknown users, disabled users and wrong
// passwords all fail with common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if username == "" || password == "" {
		return LoginResult{}, common.ErrMissingField
	}

	// no stored username contains NUL, and postgres refuses it as a parameter
	if strings.ContainsRune(username, 0) {
		security.BurnCompare(password)
		return LoginResult{}, common.ErrInvalidCredentials
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return LoginResult{}, err
		}
		security.BurnCompare(password)
		return LoginResult{}, common.ErrInvalidCredentials
	}

	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		return LoginResult{}, common.ErrInvalidCredentials
	}

	if !u.Enabled {
		return LoginResult{}, common.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(u.ID, u.Username)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}

	return LoginResult{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

// CurrentUser resolves the caller behind a bearer token.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (user.User, error) {
	if token == "" {
		return user.User{}, common.ErrUnauthenticated
	}

	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return user.User{}, common.ErrUnauthenticated
	}

	u, err := s.users.GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, common.ErrUnauthenticated
		}
		return user.User{}, err
	}

	if !u.Enabled {
		return user.User{}, common.ErrUnauthenticated
	}

	return u, nil
}

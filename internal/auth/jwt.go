package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer          = "rxtrack"
	tokenTypeAccess = "access"
)

var (
	ErrWrongTokenType = errors.New("token is not an access token")
	ErrNoSubject      = errors.New("token has no subject")
)

// Claims is the payload of an access token. The user id travels in "sub" and the token id in
// "jti"; both live on the embedded registered claims.
type Claims struct {
	Username  string `json:"username"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// UserID is the id of the user the token was issued to.
func (c *Claims) UserID() string { return c.Subject }

// Manager signs and verifies HS256 access tokens. Tokens are stateless; nothing is stored
// server side.
type Manager struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
	parser    *jwt.Parser
}

func NewManager(secret string, accessTTL time.Duration) *Manager {
	m := &Manager{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
	}
	m.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	return m
}

// GenerateAccessToken issues a signed bearer token for the user and returns it with its expiry.
func (m *Manager) GenerateAccessToken(userID, username string) (string, time.Time, error) {
	now := m.now().UTC()
	expiresAt := now.Add(m.accessTTL)

	claims := Claims{
		Username:  username,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}

	return signed, expiresAt, nil
}

// VerifyAccessToken checks signature, algorithm, issuer and expiry, then that the token is an
// access token naming a user.
func (m *Manager) VerifyAccessToken(raw string) (*Claims, error) {
	claims := &Claims{}

	_, err := m.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims.TokenType != tokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	if claims.Subject == "" {
		return nil, ErrNoSubject
	}

	return claims, nil
}

package db

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/rxtrack/internal/domain/user"
	"github.com/geocoder89/rxtrack/internal/security"
	"github.com/google/uuid"
)

type AdminStore interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u user.User) error
}

// EnsureAdminUser creates the bootstrap account when it does not exist yet. It reports whether a
// user was created. Losing a creation race to another instance counts as success.
func EnsureAdminUser(ctx context.Context, users AdminStore, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}

	exists, err := users.ExistsByUsername(ctx, username)
	if err != nil {
		return false, err
	}

	if exists {
		return false, nil
	}

	hash, err := security.HashPassword(password)

	if err != nil {
		return false, err
	}

	now := time.Now().UTC()

	err = users.Create(ctx, user.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})

	if errors.Is(err, user.ErrUsernameTaken) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

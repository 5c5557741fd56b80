package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/rxtrack/internal/domain/user"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, password_hash, enabled, created_at, updated_at`

type UsersRepo struct {
	db   DB
	prom DBObserver
}

func NewUsersRepo(db DB, prom DBObserver) *UsersRepo {
	return &UsersRepo{db: db, prom: prom}
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User

	err := observe(r.prom, "users.get_by_username", func() error {
		var err error
		u, err = scanUser(r.db.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
		return err
	})

	return u, userNotFoundOr(err, "users.get_by_username")
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := observe(r.prom, "users.get_by_id", func() error {
		var err error
		u, err = scanUser(r.db.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return err
	})

	return u, userNotFoundOr(err, "users.get_by_id")
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	err := observe(r.prom, "users.create", func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO users (`+userColumns+`) VALUES ($1,$2,$3,$4,$5,$6)`,
			u.ID, u.Username, u.PasswordHash, u.Enabled, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.ErrUsernameTaken
		}
		return persistence("users.create", err)
	}
	return nil
}

func (r *UsersRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool

	err := observe(r.prom, "users.exists_by_username", func() error {
		return r.db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	})
	if err != nil {
		return false, persistence("users.exists_by_username", err)
	}

	return exists, nil
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Enabled,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func userNotFoundOr(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return user.ErrNotFound
	}
	return persistence(op, err)
}

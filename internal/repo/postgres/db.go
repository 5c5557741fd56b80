package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/rxtrack/internal/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DBObserver records the latency and error class of one logical DB operation.
type DBObserver interface {
	ObserveDB(op string, fn func() error) error
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

// persistence wraps a driver error so callers can classify it with errors.Is.
func persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrPersistence, err)
}

func observe(o DBObserver, op string, fn func() error) error {
	if o != nil {
		return o.ObserveDB(op, fn)
	}
	return fn()
}

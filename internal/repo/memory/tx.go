package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
)

var errForeignTx = errors.New("memory: transaction was not started by this repository")

// memTx holds the repository's write lock from BeginTx until Commit or Rollback. Writes are
// staged and only applied on Commit. It embeds pgx.Tx so it satisfies the interface; only
// Commit and Rollback are implemented.
type memTx struct {
	pgx.Tx

	once    sync.Once
	unlock  func()
	apply   func()
	writes  map[string]*stagedWrite
	settled bool
}

type stagedWrite struct {
	deleted bool
	value   any
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.settled {
		return pgx.ErrTxClosed
	}
	t.apply()
	t.finish()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.settled {
		return pgx.ErrTxClosed
	}
	t.finish()
	return nil
}

func (t *memTx) finish() {
	t.once.Do(func() {
		t.settled = true
		t.unlock()
	})
}

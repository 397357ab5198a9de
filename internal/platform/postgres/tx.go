package postgres

import (
	"context"
	"database/sql"
	"time"

	txcontext "sowell/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// Tx runs units of work inside a database transaction carried in the context.
// Stores pick the transaction up through txcontext.Conn.
type Tx struct {
	db      *sql.DB
	timeout time.Duration
}

// NewTx returns a transaction runner. A zero timeout uses the default.
func NewTx(db *sql.DB, timeout time.Duration) *Tx {
	return &Tx{db: db, timeout: timeout}
}

func (t *Tx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return Translate(err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	return Translate(tx.Commit())
}

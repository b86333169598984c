package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// WithTx runs body inside a transaction. The transaction is committed only
// when mutating is true and body returns nil; on every other exit path,
// including a panic in body, it is rolled back. Errors from body are returned
// unchanged so callers can still inspect driver errors.
func WithTx(ctx context.Context, db *sql.DB, mutating bool, body func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: !mutating})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Warn("rollback failed", "error", rbErr)
		}
		if p := recover(); p != nil {
			panic(p)
		}
	}()

	if err = body(tx); err != nil {
		return err
	}

	if !mutating {
		return nil
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true

	return nil
}

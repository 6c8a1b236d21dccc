package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// RunInTx executes fn inside a transaction. The transaction commits when fn
// returns nil and rolls back on error or panic. The underlying connection is
// released exactly once regardless of outcome; rollback always happens
// before the error is returned to the caller.
func RunInTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return TranslateError(fmt.Errorf("begin transaction: %w", err))
	}

	committed := false
	defer func() {
		if !committed {
			tx.Rollback() //nolint:errcheck
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return TranslateError(fmt.Errorf("commit transaction: %w", err))
	}
	committed = true
	return nil
}

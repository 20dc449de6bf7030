package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// txKey is the context key carrying an open transaction between nested
// Within calls.
type txKey struct{}

// Querier is the query surface shared by *sql.DB and *sql.Tx. Repositories
// obtain it via FromContext so the same code runs inside or outside a
// transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// FromContext returns the transaction carried by ctx, or database when no
// Within call encloses the caller.
func FromContext(ctx context.Context, database *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return database
}

// Within runs fn inside a transaction. If ctx already carries a transaction
// opened by an enclosing Within call, fn joins it and commit/rollback stays
// with the outermost caller; otherwise a new transaction is opened, committed
// when fn returns nil and rolled back when it returns an error. The
// transaction handle travels explicitly in the context, so nesting rules are
// those of the outermost call and nothing is process-global.
func Within(ctx context.Context, database *sql.DB, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		// Already inside a transaction: join it.
		return fn(ctx)
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			slog.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

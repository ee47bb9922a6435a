package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// UnitOfWork brackets one use case's writes in a single transaction.
// A use case opens exactly one; nesting is not supported.
type UnitOfWork struct {
	db *sql.DB
}

// NewUnitOfWork creates a UnitOfWork over the shared connection.
func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// DB exposes the underlying connection for read-only access outside any
// transaction.
func (u *UnitOfWork) DB() *sql.DB {
	return u.db
}

// Tx runs fn inside a transaction. The transaction commits when fn returns
// nil and rolls back on error, panic, or context cancellation; panics are
// re-raised after rollback.
func (u *UnitOfWork) Tx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Package repository provides database operations for the moderation service.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitrine-craques/video-moderation-go/internal/db"
)

type ctxKey string

const txKey ctxKey = "tx"

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Repository handles all database operations for the moderation service.
// Methods run inside the transaction carried by ctx when there is one.
type Repository struct {
	db *pgxpool.Pool
}

// New creates a new Repository instance with the provided database connection pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

func (r *Repository) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey).(pgx.Tx); ok {
		return tx
	}
	return r.db
}

// Ping checks the database connection health.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Transaction support

// BeginTx starts a new database transaction and returns a context with the transaction.
func (r *Repository) BeginTx(ctx context.Context) (context.Context, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, db.WrapError(err, "begin transaction")
	}
	return context.WithValue(ctx, txKey, tx), nil
}

// CommitTx commits the transaction stored in the context.
func (r *Repository) CommitTx(ctx context.Context) error {
	tx, ok := ctx.Value(txKey).(pgx.Tx)
	if !ok {
		return fmt.Errorf("no transaction in context")
	}
	return db.WrapError(tx.Commit(ctx), "commit transaction")
}

// RollbackTx rolls back the transaction stored in the context.
func (r *Repository) RollbackTx(ctx context.Context) error {
	tx, ok := ctx.Value(txKey).(pgx.Tx)
	if !ok {
		return fmt.Errorf("no transaction in context")
	}
	return tx.Rollback(ctx)
}

// WithTx runs fn inside a transaction, committing when fn returns nil and rolling
// back otherwise. A ctx that already carries a transaction is reused as is.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(pgx.Tx); ok {
		return fn(ctx)
	}

	txCtx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	// Rollback after commit is a no-op.
	defer func() { _ = r.RollbackTx(txCtx) }()

	if err := fn(txCtx); err != nil {
		return err
	}

	return r.CommitTx(txCtx)
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/wardrobe/internal/db"
	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/nikolayk812/wardrobe/internal/port"
)

// withTx executes fn within a new transaction if the repository was created with a pool,
// or uses q directly if the repository was created with a transaction
func withTx[T any](ctx context.Context, pool *pgxpool.Pool, q *db.Queries, fn func(q *db.Queries) (T, error)) (T, error) {
	if pool == nil {
		// Already in a transaction, just use it
		return fn(q)
	}

	return inTx(ctx, pool, func(tx pgx.Tx) (T, error) {
		return fn(q.WithTx(tx))
	})
}

func inTx[T any](ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) (T, error)) (_ T, txErr error) {
	var zero T

	tx, err := pool.Begin(ctx)
	if err != nil {
		return zero, fmt.Errorf("pool.Begin: %w", err)
	}

	// Ensure proper rollback handling
	defer func() {
		if txErr != nil {
			rollbackErr := tx.Rollback(ctx)
			if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				txErr = errors.Join(txErr, fmt.Errorf("tx.Rollback: %w", rollbackErr))
			}
		}
	}()

	result, err := fn(tx)
	if err != nil {
		return zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return zero, fmt.Errorf("tx.Commit: %w", err)
	}

	return result, nil
}

type txRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) port.TxRunner {
	return &txRunner{pool: pool}
}

func (r *txRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	_, err := inTx(ctx, r.pool, func(tx pgx.Tx) (struct{}, error) {
		repos := port.Repositories{
			Listings:     NewListingWithTx(tx),
			Transactions: NewTransactionWithTx(tx),
		}
		return struct{}{}, fn(ctx, repos)
	})
	return err
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// mapPgError turns constraint violations into domain errors, leaving others untouched.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation, pgForeignKeyViolation:
		return &domain.ConstraintError{Err: domain.ErrConflict, Constraint: pgErr.ConstraintName}
	case pgCheckViolation:
		return &domain.ConstraintError{Err: domain.ErrValidation, Constraint: pgErr.ConstraintName}
	default:
		return err
	}
}

func nilSliceIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}

func emptyJSONIfNil(j []byte) []byte {
	if j == nil {
		return []byte(`{}`)
	}
	return j
}

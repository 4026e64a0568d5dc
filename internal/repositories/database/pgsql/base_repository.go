package pgsql

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgx operations shared by pools and transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BaseRepository provides the connection handle shared by all repositories.
// q resolves the active querier: the ambient transaction when the caller runs
// inside TxManager.WithinTx, the pool otherwise. Repositories never manage
// transactions themselves.
type BaseRepository struct {
	pool *pgxpool.Pool
}

func (r *BaseRepository) q(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// uniqueViolation is the Postgres error code for a unique index conflict.
const uniqueViolation = "23505"

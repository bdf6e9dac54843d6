package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("record not found")

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db querier
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// NewWithQuerier builds a repository over any pgx query surface, e.g. a transaction.
func NewWithQuerier(q querier) *Repository {
	return &Repository{db: q}
}

// Package postgres implements the repository contracts on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techinsight/techinsight-be/internal/database"
	"github.com/techinsight/techinsight-be/internal/repository"
)

// uniqueViolation is the SQLSTATE Postgres reports for unique constraint failures.
const uniqueViolation = "23505"

// DBTX is the subset of pgx used by the repositories, satisfied by a pool, a connection or a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles the Postgres repositories over one pool.
type Store struct {
	pool     *pgxpool.Pool
	accounts *AccountRepository
	posts    *PostRepository
}

var _ repository.Store = (*Store)(nil)

// NewStore creates a Store over an already migrated pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:     pool,
		accounts: NewAccountRepository(pool),
		posts:    NewPostRepository(pool),
	}
}

// Open connects to dsn, applies the schema and returns a Store.
func Open(ctx context.Context, dsn string, maxConns int) (*Store, error) {
	pool, err := database.NewPostgresPool(ctx, dsn, maxConns)
	if err != nil {
		return nil, err
	}
	if err := database.MigratePostgres(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return NewStore(pool), nil
}

// Accounts returns the account repository.
func (s *Store) Accounts() repository.AccountRepository { return s.accounts }

// Posts returns the post repository.
func (s *Store) Posts() repository.PostRepository { return s.posts }

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

// Truncate removes all rows. Intended for tests.
func (s *Store) Truncate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE posts, accounts`); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

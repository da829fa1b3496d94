package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPostgresPool creates a connection pool to the Postgres instance at dsn.
func NewPostgresPool(ctx context.Context, dsn string, maxConns int) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// MigratePostgres creates the Postgres schema.
//
// Posts keep likes and favourites as TEXT[] and comments as a JSONB array so
// each engagement change is one UPDATE statement on one row.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		thumbnail TEXT NOT NULL DEFAULT '',
		author JSONB NOT NULL,
		tags TEXT[] NOT NULL DEFAULT '{}',
		is_favourite BOOLEAN NOT NULL DEFAULT FALSE,
		favourited_by TEXT[] NOT NULL DEFAULT '{}',
		likes TEXT[] NOT NULL DEFAULT '{}',
		comments JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS posts_author_id_idx ON posts ((author->>'id'));
	CREATE INDEX IF NOT EXISTS posts_created_at_idx ON posts (created_at DESC);
	`
	if _, err := pool.Exec(ctx, sqlStmt); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

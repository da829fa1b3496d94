// Package sqlite implements the repository contracts on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/techinsight/techinsight-be/internal/database"
	"github.com/techinsight/techinsight-be/internal/repository"
	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Timestamps are stored as fixed-width UTC text so lexical order is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store bundles the SQLite repositories over one connection pool.
type Store struct {
	db       *sql.DB
	accounts *AccountRepository
	posts    *PostRepository
}

var _ repository.Store = (*Store)(nil)

// NewStore creates a Store over an already migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:       db,
		accounts: NewAccountRepository(db),
		posts:    NewPostRepository(db),
	}
}

// Open opens the database file at path, applies the schema and returns a Store.
func Open(path string) (*Store, error) {
	db, err := database.New(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite database: %w", err)
	}
	return NewStore(db), nil
}

// Accounts returns the account repository.
func (s *Store) Accounts() repository.AccountRepository { return s.accounts }

// Posts returns the post repository.
func (s *Store) Posts() repository.PostRepository { return s.posts }

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlitedriver.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr *sqlitedriver.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return false
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

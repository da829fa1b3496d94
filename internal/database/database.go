package database

import (
	"database/sql"
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

func init() {
	// SQLite's built-in lower() only folds ASCII.
	sqlite.MustRegisterDeterministicScalarFunction("unicode_lower", 1, unicodeLower)
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// New creates a new SQLite connection pool. dataSourceName is a file path or a
// file: URI, optionally carrying its own query parameters.
func New(dataSourceName string) (*sql.DB, error) {
	sep := "?"
	if strings.Contains(dataSourceName, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", dataSourceName+sep+pragmas)
	if err != nil {
		return nil, err
	}
	if isMemory(dataSourceName) {
		// Every pooled connection would otherwise open its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func isMemory(dataSourceName string) bool {
	return dataSourceName == ":memory:" ||
		strings.HasPrefix(dataSourceName, "file::memory:") ||
		strings.Contains(dataSourceName, "mode=memory")
}

// Migrate runs the SQL statements to set up the SQLite schema.
//
// Likes, favourites and comments live in child tables so every engagement
// change is a single-row insert or delete.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT NOT NULL PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS posts (
		id TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		thumbnail TEXT NOT NULL DEFAULT '',
		-- author snapshot taken at creation time
		author_id TEXT NOT NULL,
		author_first_name TEXT NOT NULL DEFAULT '',
		author_last_name TEXT NOT NULL DEFAULT '',
		author_bio TEXT NOT NULL DEFAULT '',
		author_snapshot_at TEXT NOT NULL,
		tags_json TEXT NOT NULL DEFAULT '[]',
		is_favourite INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id);
	CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);

	CREATE TABLE IF NOT EXISTS post_likes (
		post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		account_id TEXT NOT NULL,
		PRIMARY KEY (post_id, account_id)
	);

	CREATE TABLE IF NOT EXISTS post_favourites (
		post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		account_id TEXT NOT NULL,
		PRIMARY KEY (post_id, account_id)
	);

	CREATE TABLE IF NOT EXISTS post_comments (
		id TEXT NOT NULL PRIMARY KEY,
		post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		author_id TEXT NOT NULL,
		author_first_name TEXT NOT NULL DEFAULT '',
		author_last_name TEXT NOT NULL DEFAULT '',
		author_bio TEXT NOT NULL DEFAULT '',
		author_snapshot_at TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_post_comments_post_id ON post_comments(post_id);
	`
	_, err := db.Exec(sqlStmt)
	return err
}

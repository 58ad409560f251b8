package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/mattn/go-sqlite3"
)

// SQLiteStore backs the local identity emulator and, optionally, the
// verification code store.
type SQLiteStore struct {
	db *sql.DB
}

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	subject TEXT PRIMARY KEY NOT NULL CHECK(subject <> ''),
	email TEXT NOT NULL UNIQUE CHECK(email <> ''),
	password_hash TEXT NOT NULL CHECK(password_hash <> ''),
	confirmed INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS verification_codes (
	id TEXT PRIMARY KEY NOT NULL CHECK(id <> ''),
	type TEXT NOT NULL,
	subject TEXT NOT NULL,
	expires INTEGER NOT NULL DEFAULT 0
);`

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// :memory: databases are per-connection
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	logging.DebugLog("SQLite schema ready: %s", path)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func isConstraintViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == sqlite3.ErrConstraint
}

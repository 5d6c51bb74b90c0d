// Package db provides the persistence layer used by the application. It wraps
// a SQLite database holding the single piece of persisted state: the search
// API credential. Callers are expected to open a single DB instance using New
// and reuse it for all operations.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// CredentialKey is the settings key under which the API credential is stored.
const CredentialKey = "youtube-api-key"

// DB wraps a sql.DB connection and exposes helper methods for the
// application's persistence layer.
type DB struct {
	*sql.DB
}

// New opens the SQLite database located at path. If the file does not
// exist it is created along with the required schema. ":memory:" is
// supported; the pool is limited to one connection so every query sees the
// same in-memory database.
func New(path string) (*DB, error) {
	d, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	d.SetMaxOpenConns(1)
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS settings (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
	}
	// Errors here likely mean the database file is not writable.
	for _, s := range stmts {
		if _, err := d.Exec(s); err != nil {
			d.Close()
			return nil, fmt.Errorf("init db: %w", err)
		}
	}
	return &DB{d}, nil
}

// SaveCredential persists the API credential. An existing value is
// replaced.
func (db *DB) SaveCredential(ctx context.Context, credential string) error {
	_, err := db.ExecContext(ctx, `INSERT INTO settings(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`, CredentialKey, credential)
	return err
}

// Credential returns the stored API credential. An empty string and a nil
// error are returned when none has been saved yet.
func (db *DB) Credential(ctx context.Context) (string, error) {
	var v string
	err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key=?`, CredentialKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"
)

// SQLiteSchema mirrors db/migrations/000001_create_kv_entries.up.sql for the
// local SQLite backend, which doesn't go through golang-migrate.
const SQLiteSchema = `CREATE TABLE IF NOT EXISTS kv_entries (
    entry_key   TEXT PRIMARY KEY NOT NULL,
    entry_value TEXT NOT NULL,
    updated_at  INTEGER NOT NULL DEFAULT (strftime('%s','now'))
)`

// NewSQLite opens (creating if needed) the SQLite file at path and ensures
// the kv_entries table exists.
func NewSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating sqlite directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	// One writer at a time; SQLite serializes writes anyway and a single
	// connection avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if err := EnsureSQLiteSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSQLiteSchema creates the kv_entries table if it is missing.
func EnsureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, SQLiteSchema); err != nil {
		return fmt.Errorf("creating sqlite schema: %w", err)
	}
	return nil
}

package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Dialect selects the SQL flavour used by the SQL backend.
type Dialect int

const (
	// DialectSQLite targets modernc.org/sqlite.
	DialectSQLite Dialect = iota
	// DialectMySQL targets MariaDB/MySQL via go-sql-driver/mysql.
	DialectMySQL
)

// sqlBackend stores entries in the kv_entries table. One database is one
// storage origin; the schema is created by database.EnsureSQLiteSchema or
// the MariaDB migrations.
type sqlBackend struct {
	db     *sql.DB
	upsert string
	owned  bool
}

// NewSQLBackend creates a backend over an open database. When owned is true,
// Close also closes the database.
func NewSQLBackend(db *sql.DB, dialect Dialect, owned bool) Backend {
	upsert := `INSERT INTO kv_entries (entry_key, entry_value, updated_at)
	           VALUES (?, ?, strftime('%s','now'))
	           ON CONFLICT(entry_key) DO UPDATE
	           SET entry_value = excluded.entry_value, updated_at = excluded.updated_at`
	if dialect == DialectMySQL {
		upsert = `INSERT INTO kv_entries (entry_key, entry_value) VALUES (?, ?)
		          ON DUPLICATE KEY UPDATE entry_value = VALUES(entry_value)`
	}
	return &sqlBackend{db: db, upsert: upsert, owned: owned}
}

func (s *sqlBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT entry_value FROM kv_entries WHERE entry_key = ?`, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("selecting entry: %w", err)
	}
	return v, true, nil
}

func (s *sqlBackend) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.upsert, key, value); err != nil {
		return fmt.Errorf("upserting entry: %w", err)
	}
	return nil
}

func (s *sqlBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	query := `DELETE FROM kv_entries WHERE entry_key IN (` + placeholders + `)`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting entries: %w", err)
	}
	return nil
}

func (s *sqlBackend) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries`); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}
	return nil
}

func (s *sqlBackend) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entry_key FROM kv_entries ORDER BY entry_key`)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning entry key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *sqlBackend) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const sqliteKVSchema = `
CREATE TABLE IF NOT EXISTS kv_values (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at INTEGER NOT NULL DEFAULT (unixepoch())
);
CREATE TABLE IF NOT EXISTS kv_counters (
    key   TEXT PRIMARY KEY,
    value INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS kv_set_members (
    key    TEXT NOT NULL,
    member TEXT NOT NULL,
    PRIMARY KEY (key, member)
);`

// SQLiteKVStore implements KVStore on a SQLite database.
type SQLiteKVStore struct {
	db *sql.DB
}

// NewSQLiteKVStore wraps an open SQLite handle.
func NewSQLiteKVStore(db *sql.DB) *SQLiteKVStore {
	return &SQLiteKVStore{db: db}
}

// EnsureSchema creates the backing tables when missing.
func (r *SQLiteKVStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteKVSchema); err != nil {
		return fmt.Errorf("ensure kv schema: %w", err)
	}
	return nil
}

// Get fetches the value stored under key.
func (r *SQLiteKVStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	if err := r.db.QueryRowContext(ctx, `SELECT value FROM kv_values WHERE key = ?`, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("query kv value: %w", err)
	}
	return value, nil
}

// Set upserts the value under key.
func (r *SQLiteKVStore) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO kv_values (key, value)
        VALUES (?, ?)
        ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = unixepoch()
    `, key, value)
	if err != nil {
		return fmt.Errorf("upsert kv value: %w", err)
	}
	return nil
}

// Increment adds delta to the counter under key.
func (r *SQLiteKVStore) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
        INSERT INTO kv_counters (key, value)
        VALUES (?, ?)
        ON CONFLICT (key) DO UPDATE SET value = kv_counters.value + excluded.value
        RETURNING value
    `, key, delta).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("increment kv counter: %w", err)
	}
	return total, nil
}

// AddToSet inserts member into the set under key.
func (r *SQLiteKVStore) AddToSet(ctx context.Context, key, member string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO kv_set_members (key, member) VALUES (?, ?)`, key, member)
	if err != nil {
		return false, fmt.Errorf("add kv set member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add kv set member: %w", err)
	}
	return n == 1, nil
}

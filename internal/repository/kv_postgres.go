package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxPool interface {
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
}

const postgresKVSchema = `
CREATE TABLE IF NOT EXISTS kv_values (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS kv_counters (
    key   TEXT PRIMARY KEY,
    value BIGINT NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS kv_set_members (
    key    TEXT NOT NULL,
    member TEXT NOT NULL,
    PRIMARY KEY (key, member)
);`

// PGXKVStore implements KVStore on PostgreSQL.
type PGXKVStore struct {
	pool pgxPool
}

// NewPGXKVStore instantiates a PostgreSQL-backed store. Pass a *pgxpool.Pool.
func NewPGXKVStore(pool pgxPool) *PGXKVStore {
	return &PGXKVStore{pool: pool}
}

// EnsureSchema creates the backing tables when missing.
func (r *PGXKVStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresKVSchema); err != nil {
		return fmt.Errorf("ensure kv schema: %w", err)
	}
	return nil
}

// Get fetches the value stored under key.
func (r *PGXKVStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	if err := r.pool.QueryRow(ctx, `SELECT value FROM kv_values WHERE key = $1`, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("query kv value: %w", err)
	}
	return value, nil
}

// Set upserts the value under key.
func (r *PGXKVStore) Set(ctx context.Context, key, value string) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO kv_values (key, value)
        VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
    `, key, value)
	if err != nil {
		return fmt.Errorf("upsert kv value: %w", err)
	}
	return nil
}

// Increment adds delta to the counter under key.
func (r *PGXKVStore) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `
        INSERT INTO kv_counters (key, value)
        VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET value = kv_counters.value + EXCLUDED.value
        RETURNING value
    `, key, delta).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("increment kv counter: %w", err)
	}
	return total, nil
}

// AddToSet inserts member into the set under key.
func (r *PGXKVStore) AddToSet(ctx context.Context, key, member string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
        INSERT INTO kv_set_members (key, member)
        VALUES ($1, $2)
        ON CONFLICT DO NOTHING
    `, key, member)
	if err != nil {
		return false, fmt.Errorf("add kv set member: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

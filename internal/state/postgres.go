package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps each logical key as a single JSON row in app_state.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool and ensures the backing table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := &PostgresStore{pool: pool}
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStore wraps an existing pool without touching the schema.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the app_state table if it does not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	const stmt = `CREATE TABLE IF NOT EXISTS app_state (
        key        text PRIMARY KEY,
        value      jsonb NOT NULL,
        updated_at timestamptz NOT NULL DEFAULT now()
    )`
	if _, err := p.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("ensure app_state schema: %w", err)
	}
	return nil
}

// Read fetches the blob stored under key.
func (p *PostgresStore) Read(ctx context.Context, key string) (json.RawMessage, bool, error) {
	const query = `SELECT value FROM app_state WHERE key=$1`

	var value json.RawMessage
	err := p.pool.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Write upserts the blob under key, replacing any previous value in full.
func (p *PostgresStore) Write(ctx context.Context, key string, value json.RawMessage) error {
	const stmt = `INSERT INTO app_state (key, value, updated_at)
        VALUES ($1, $2, now())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	_, err := p.pool.Exec(ctx, stmt, key, value)
	return err
}

// Close releases the underlying pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

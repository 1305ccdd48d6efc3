// Package postgres implements the kv.Store port on PostgreSQL, for
// deployments without a Redis instance.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mitocards/internal/kv"

	"github.com/lib/pq"
)

// Store emulates the key-value primitives with two tables: kv_entries for
// scalar keys (expiry filtered at read time) and kv_set_members for sets.
type Store struct {
	sql *sql.DB
}

// Open connects to Postgres, verifies the connection and applies the schema.
func Open(connStr string) (*Store, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	st := &Store{sql: s}
	if err := st.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return st, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.sql.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv_entries (
			key TEXT PRIMARY KEY,
			value BYTEA NOT NULL,
			expires_at TIMESTAMPTZ
		);`,
		`CREATE TABLE IF NOT EXISTS kv_set_members (
			key TEXT NOT NULL,
			member TEXT NOT NULL,
			PRIMARY KEY (key, member)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_kv_entries_expires_at ON kv_entries(expires_at) WHERE expires_at IS NOT NULL;`,
	}

	for _, stmt := range stmts {
		if _, err := s.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Ensure the interface is met.
var _ kv.Store = (*Store)(nil)

// Get returns the value at key, or nil if absent or expired.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.sql.QueryRowContext(ctx,
		`SELECT value FROM kv_entries WHERE key = $1 AND (expires_at IS NULL OR expires_at > now());`,
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set upserts the value at key. A positive ttl sets expires_at; zero clears
// it.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}
	_, err := s.sql.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at;`,
		key, value, expiresAt,
	)
	return err
}

// Del removes the given keys from both tables.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := s.sql.ExecContext(ctx,
		`DELETE FROM kv_entries WHERE key = ANY($1);`, pq.Array(keys)); err != nil {
		return err
	}
	_, err := s.sql.ExecContext(ctx,
		`DELETE FROM kv_set_members WHERE key = ANY($1);`, pq.Array(keys))
	return err
}

// MGet returns values aligned with keys; misses are nil.
func (s *Store) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	rows, err := s.sql.QueryContext(ctx,
		`SELECT key, value FROM kv_entries WHERE key = ANY($1) AND (expires_at IS NULL OR expires_at > now());`,
		pq.Array(keys),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byKey := make(map[string][]byte, len(keys))
	for rows.Next() {
		var k string
		var v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		byKey[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = byKey[k]
	}
	return out, nil
}

// SAdd adds member to the set at key.
func (s *Store) SAdd(ctx context.Context, key, member string) error {
	_, err := s.sql.ExecContext(ctx,
		`INSERT INTO kv_set_members (key, member) VALUES ($1, $2) ON CONFLICT DO NOTHING;`,
		key, member,
	)
	return err
}

// SRem removes member from the set at key.
func (s *Store) SRem(ctx context.Context, key, member string) error {
	_, err := s.sql.ExecContext(ctx,
		`DELETE FROM kv_set_members WHERE key = $1 AND member = $2;`,
		key, member,
	)
	return err
}

// SMembers returns the members of the set at key.
func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	rows, err := s.sql.QueryContext(ctx,
		`SELECT member FROM kv_set_members WHERE key = $1;`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

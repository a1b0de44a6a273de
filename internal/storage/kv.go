package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	errs "errors"
	"log/slog"
	"time"

	"github.com/pkg/errors"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a key -> JSON document table. Every write replaces the whole value.
type Store struct {
	db *sql.DB
	q  querier
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

// Get returns the raw value for key, or nil when the key is absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.q.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errs.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", key)
	}
	return []byte(value), nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(value), time.Now().UTC())
	if err != nil {
		return errors.Wrapf(err, "put %s", key)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}

// Keys lists stored keys in lexical order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, errors.Wrap(err, "list keys")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.Wrap(err, "scan key")
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate keys")
	}
	return keys, nil
}

// Load reads key into a T. A missing key is initialised from def and written back.
// A value that no longer decodes is logged and replaced by def in memory only.
func Load[T any](ctx context.Context, s *Store, key string, def func() T) (T, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	if raw == nil {
		v := def()
		if err := Save(ctx, s, key, v); err != nil {
			var zero T
			return zero, err
		}
		return v, nil
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.Warn("stored value is malformed, using default", "key", key, "err", err)
		return def(), nil
	}
	return v, nil
}

// Save encodes v as JSON and replaces the value stored under key.
func Save[T any](ctx context.Context, s *Store, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return s.Put(ctx, key, raw)
}

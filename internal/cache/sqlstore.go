package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// sqlEntry is the row shape of the cache_entries table.
type sqlEntry struct {
	CacheKey   string          `db:"cache_key"`
	Value      json.RawMessage `db:"value"`
	WrittenAt  time.Time       `db:"written_at"`
	TTLSeconds int64           `db:"ttl_seconds"`
}

// SQLStore is a Store backed by a relational database, for deployments
// that already run one instead of an embedded store.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore creates a store over an open connection.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// EnsureSchema creates the cache_entries table when missing.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS cache_entries (
			cache_key VARCHAR(512) NOT NULL PRIMARY KEY,
			value JSON NOT NULL,
			written_at TIMESTAMP NOT NULL,
			ttl_seconds BIGINT NOT NULL DEFAULT 0
		)`)
	if err != nil {
		return fmt.Errorf("db.ExecContext(create cache_entries) > %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (*Entry, error) {
	var row sqlEntry
	err := s.db.GetContext(ctx, &row, "SELECT * FROM cache_entries WHERE cache_key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(cache_entry) > %w", err)
	}
	return &Entry{
		Key:       row.CacheKey,
		Value:     row.Value,
		WrittenAt: row.WrittenAt,
		TTL:       time.Duration(row.TTLSeconds) * time.Second,
	}, nil
}

func (s *SQLStore) Put(ctx context.Context, entry Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (cache_key, value, written_at, ttl_seconds)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value), written_at = VALUES(written_at), ttl_seconds = VALUES(ttl_seconds)`,
		entry.Key, entry.Value, entry.WrittenAt, int64(entry.TTL/time.Second))
	if err != nil {
		return fmt.Errorf("db.ExecContext(upsert cache_entry) > %w", err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE cache_key = ?", key)
	if err != nil {
		return fmt.Errorf("db.ExecContext(delete cache_entry) > %w", err)
	}
	return nil
}

func (s *SQLStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, "SELECT cache_key FROM cache_entries ORDER BY cache_key"); err != nil {
		return nil, fmt.Errorf("db.SelectContext(cache_entries) > %w", err)
	}
	return keys, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/rl1809/meal-order/internal/core/domain"
)

// SQLiteStore persists the local state as key/value rows in a single file.
// Counter increments are serialized by a process-wide mutex and a
// transaction; two processes on different devices can still collide.
type SQLiteStore struct {
	db      *sql.DB
	keys    Keys
	counter sync.Mutex
}

func OpenSQLiteStore(ctx context.Context, path string, keys Keys) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &SQLiteStore{db: db, keys: keys}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("create kv table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadCatalog(ctx context.Context) (*domain.CatalogSnapshot, error) {
	var snap domain.CatalogSnapshot
	ok, err := s.getJSON(ctx, s.keys.Catalog, &snap)
	if err != nil || !ok {
		return nil, err
	}
	return &snap, nil
}

func (s *SQLiteStore) SaveCatalog(ctx context.Context, snapshot domain.CatalogSnapshot) error {
	return s.setJSON(ctx, s.keys.Catalog, snapshot)
}

func (s *SQLiteStore) NextOrderNumber(ctx context.Context) (int64, error) {
	s.counter.Lock()
	defer s.counter.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current int64
	var raw string
	err = tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, s.keys.Counter).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return 0, fmt.Errorf("read order counter: %w", err)
	default:
		if current, err = strconv.ParseInt(raw, 10, 64); err != nil {
			// An unreadable counter restarts from zero, like a missing one.
			current = 0
		}
	}

	next := current + 1
	if err := upsert(ctx, tx, s.keys.Counter, strconv.FormatInt(next, 10)); err != nil {
		return 0, fmt.Errorf("write order counter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit order counter: %w", err)
	}
	return next, nil
}

func (s *SQLiteStore) LoadProfile(ctx context.Context, owner string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	ok, err := s.getJSON(ctx, s.keys.profile(owner), &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) SaveProfile(ctx context.Context, owner string, profile domain.UserProfile) error {
	return s.setJSON(ctx, s.keys.profile(owner), profile)
}

func (s *SQLiteStore) getJSON(ctx context.Context, key string, v any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *SQLiteStore) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return upsert(ctx, s.db, key, string(data))
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	return err
}

// Package sqlite provides SQLite-based persistent storage for Bloom.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/habitbloom/bloom/internal/domain"
	"github.com/habitbloom/bloom/internal/infra/metrics"
)

// DefaultHistoryLimit is how many past writes are kept per key.
const DefaultHistoryLimit = 20

// DB wraps a SQLite connection with WAL mode and migrations.
// It implements domain.KVStore and domain.HistoryStore.
type DB struct {
	db           *sql.DB
	historyLimit int
}

var (
	_ domain.KVStore      = (*DB)(nil)
	_ domain.HistoryStore = (*DB)(nil)
)

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db, historyLimit: DefaultHistoryLimit}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// SetHistoryLimit changes how many past writes are kept per key.
// Zero disables the history table.
func (d *DB) SetHistoryLimit(n int) {
	if n < 0 {
		n = 0
	}
	d.historyLimit = n
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// One JSON document per key
		`CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,

		// Append-only audit of past writes, trimmed per key
		`CREATE TABLE IF NOT EXISTS kv_history (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			written_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_kv_history_key ON kv_history(key, id)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Key-Value ──────────────────────────────────────────────────────────────

// Get returns the value stored under key.
func (d *DB) Get(ctx context.Context, key string) (string, bool, error) {
	defer observe("get", time.Now())

	var value string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts key and appends the write to kv_history in one transaction.
func (d *DB) Set(ctx context.Context, key, value string) error {
	defer observe("set", time.Now())

	now := time.Now()
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, now.UnixMilli(),
	); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	if d.historyLimit > 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kv_history (key, value, written_at) VALUES (?, ?, ?)`,
			key, value, now.UnixMilli(),
		); err != nil {
			return fmt.Errorf("history %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM kv_history WHERE key = ? AND id NOT IN (
				SELECT id FROM kv_history WHERE key = ? ORDER BY id DESC LIMIT ?
			)`,
			key, key, d.historyLimit,
		); err != nil {
			return fmt.Errorf("trim history %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// Delete removes key. History is kept.
func (d *DB) Delete(ctx context.Context, key string) error {
	defer observe("delete", time.Now())

	if _, err := d.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys in lexical order.
func (d *DB) Keys(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// ─── History ────────────────────────────────────────────────────────────────

// History returns up to limit past writes of key, newest first.
func (d *DB) History(ctx context.Context, key string, limit int) ([]domain.Snapshot, error) {
	if limit <= 0 {
		limit = d.historyLimit
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT key, value, written_at FROM kv_history
		 WHERE key = ? ORDER BY id DESC LIMIT ?`,
		key, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(s scanner) (domain.Snapshot, error) {
	var snap domain.Snapshot
	var writtenAt int64
	if err := s.Scan(&snap.Key, &snap.Value, &writtenAt); err != nil {
		return domain.Snapshot{}, err
	}
	snap.WrittenAt = time.UnixMilli(writtenAt)
	return snap, nil
}

func observe(op string, start time.Time) {
	metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

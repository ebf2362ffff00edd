package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dancelog/internal/core"

	_ "modernc.org/sqlite"
)

// snapshotKey is the single key the whole record collection lives under,
// carried over from the original storage entry name.
const snapshotKey = "dance_teaching_records_v1"

// SQLiteRepository persists the record collection as one JSON snapshot in a
// key-value table. Every save replaces the whole snapshot; there are no
// partial writes.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load retrieves the stored collection. A missing snapshot or an
// undecodable payload yields an empty collection; failures are logged but
// never surfaced, so a corrupted store degrades to a fresh start instead of
// blocking startup.
func (r *SQLiteRepository) Load(ctx context.Context) []core.Record {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM snapshots WHERE key = ?`, snapshotKey,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		slog.DebugContext(ctx, "No snapshot stored yet", "key", snapshotKey)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read snapshot", "key", snapshotKey, "error", err)
		return nil
	}

	records, err := decodeRecords(payload)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to decode snapshot", "key", snapshotKey, "error", err)
		return nil
	}

	slog.DebugContext(ctx, "Snapshot loaded", "key", snapshotKey, "count", len(records))
	return records
}

// Save replaces the stored collection with the given one. Write failures
// are logged and dropped; the in-memory collection stays the source of
// truth until the next successful save.
func (r *SQLiteRepository) Save(ctx context.Context, records []core.Record) {
	payload, err := encodeRecords(records)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode snapshot", "key", snapshotKey, "count", len(records), "error", err)
		return
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO snapshots (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		snapshotKey, payload,
	)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to write snapshot", "key", snapshotKey, "count", len(records), "error", err)
		return
	}

	slog.DebugContext(ctx, "Snapshot saved", "key", snapshotKey, "count", len(records))
}

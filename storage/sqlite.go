//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/pthm-cable/warren/telemetry"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run RunRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at = excluded.started_at,
			payload = excluded.payload
	`, run.ID, run.StartedAt.UnixNano(), payload)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (RunRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return RunRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, false, nil
		}
		return RunRecord{}, false, err
	}

	run, err := DecodeRun(payload)
	if err != nil {
		return RunRecord{}, false, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, true, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]RunRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, payload FROM runs ORDER BY started_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		run, err := DecodeRun(payload)
		if err != nil {
			return nil, fmt.Errorf("decode run %s: %w", id, err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AppendWindow(ctx context.Context, runID string, stats telemetry.WindowStats) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeWindow(stats)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO windows (run_id, window_end, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id, window_end) DO UPDATE SET
			payload = excluded.payload
	`, runID, stats.WindowEndTick, payload)
	return err
}

func (s *SQLiteStore) GetWindows(ctx context.Context, runID string) ([]telemetry.WindowStats, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	rows, err := db.QueryContext(ctx, `SELECT payload FROM windows WHERE run_id = ? ORDER BY window_end`, runID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var out []telemetry.WindowStats
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, false, err
		}
		stats, err := DecodeWindow(payload)
		if err != nil {
			return nil, false, fmt.Errorf("decode window for run %s: %w", runID, err)
		}
		out = append(out, stats)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(out) == 0 {
		return nil, false, nil
	}
	return out, true, nil
}

func (s *SQLiteStore) AppendBookmark(ctx context.Context, runID string, bookmark telemetry.Bookmark) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO bookmarks (run_id, tick, type, description)
		VALUES (?, ?, ?, ?)
	`, runID, bookmark.Tick, string(bookmark.Type), bookmark.Description)
	return err
}

func (s *SQLiteStore) GetBookmarks(ctx context.Context, runID string) ([]telemetry.Bookmark, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT tick, type, description FROM bookmarks
		WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var out []telemetry.Bookmark
	for rows.Next() {
		var (
			b   telemetry.Bookmark
			typ string
		)
		if err := rows.Scan(&b.Tick, &typ, &b.Description); err != nil {
			return nil, false, err
		}
		b.Type = telemetry.BookmarkType(typ)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(out) == 0 {
		return nil, false, nil
	}
	return out, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS windows (
			run_id TEXT NOT NULL,
			window_end INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, window_end)
		);
		CREATE TABLE IF NOT EXISTS bookmarks (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL
		);
	`)
	return err
}

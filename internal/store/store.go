package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// Store is the client's local state: credentials, preferences, the focus
// schedule and a log of completed pomodoro sessions.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('pomodoro_focus',          '1500'),
		('pomodoro_short_break',    '300'),
		('pomodoro_long_break',     '900'),
		('pomodoro_long_every',     '4'),
		('auto_start_breaks',       'false'),
		('auto_start_pomodoros',    'false'),
		('pomodoro_count',          '0'),
		('focus_daily_sessions',    '8'),
		('focus_weekly_hours',      '20'),
		('focus_daily_hours',       '4');

	CREATE TABLE IF NOT EXISTS focus_schedule (
		day          TEXT PRIMARY KEY,
		position     INTEGER NOT NULL,
		enabled      INTEGER NOT NULL DEFAULT 1,
		sessions     INTEGER NOT NULL DEFAULT 8,
		focus_hours  REAL NOT NULL DEFAULT 4
	);

	INSERT OR IGNORE INTO focus_schedule (day, position, enabled, sessions, focus_hours) VALUES
		('mon', 0, 1, 8, 4),
		('tue', 1, 1, 8, 4),
		('wed', 2, 1, 8, 4),
		('thu', 3, 1, 8, 4),
		('fri', 4, 1, 8, 4),
		('sat', 5, 0, 4, 2),
		('sun', 6, 0, 4, 2);

	CREATE TABLE IF NOT EXISTS session_log (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		type             TEXT NOT NULL,
		duration         INTEGER NOT NULL,
		project_id       TEXT NOT NULL DEFAULT '',
		project_task_id  TEXT NOT NULL DEFAULT '',
		completed_at     TEXT NOT NULL,
		server_id        TEXT NOT NULL DEFAULT '',
		synced           INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_session_log_completed ON session_log(completed_at);
	CREATE INDEX IF NOT EXISTS idx_session_log_synced    ON session_log(synced);
	`
	_, err := s.db.Exec(ddl)
	return err
}

package store

import (
	"database/sql"
	"fmt"
	"time"
)

// RecordSession logs a finished session locally, before it is sent.
func (s *Store) RecordSession(r SessionRecord) (*SessionRecord, error) {
	if r.CompletedAt.IsZero() {
		r.CompletedAt = time.Now()
	}
	res, err := s.db.Exec(
		`INSERT INTO session_log (type, duration, project_id, project_task_id, completed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		r.Type, r.Duration, r.ProjectID, r.ProjectTaskID, r.CompletedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetSession(id)
}

func (s *Store) GetSession(id int64) (*SessionRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, type, duration, project_id, project_task_id, completed_at, server_id, synced
		 FROM session_log WHERE id = ?`, id,
	)
	r, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", id, err)
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (*SessionRecord, error) {
	r := &SessionRecord{}
	var completedAt string
	if err := sc.Scan(&r.ID, &r.Type, &r.Duration, &r.ProjectID, &r.ProjectTaskID, &completedAt, &r.ServerID, &r.Synced); err != nil {
		return nil, err
	}
	r.CompletedAt, _ = time.Parse(time.RFC3339, completedAt)
	return r, nil
}

// MarkSessionSynced records that the server accepted session id.
func (s *Store) MarkSessionSynced(id int64, serverID string) error {
	res, err := s.db.Exec(`UPDATE session_log SET synced = 1, server_id = ? WHERE id = ?`, serverID, id)
	if err != nil {
		return fmt.Errorf("mark session %d synced: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark session %d synced: %w", id, sql.ErrNoRows)
	}
	return nil
}

// UnsyncedSessions returns sessions the server has not accepted, oldest first.
func (s *Store) UnsyncedSessions() ([]SessionRecord, error) {
	return s.querySessions(`WHERE synced = 0 ORDER BY completed_at, id`)
}

// ListSessions returns sessions completed in [from, to), newest first.
func (s *Store) ListSessions(from, to time.Time, limit int) ([]SessionRecord, error) {
	q := `WHERE completed_at >= ? AND completed_at < ? ORDER BY completed_at DESC, id DESC`
	args := []any{from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339)}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.querySessions(q, args...)
}

func (s *Store) querySessions(where string, args ...any) ([]SessionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, type, duration, project_id, project_task_id, completed_at, server_id, synced
		 FROM session_log `+where, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		r, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// SessionStats counts focus sessions completed in [from, to) and their
// total length in seconds. Breaks are excluded.
func (s *Store) SessionStats(from, to time.Time) (completed int, totalFocus int64, err error) {
	err = s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(duration), 0)
		FROM session_log
		WHERE type = 'pomodoro'
		  AND completed_at >= ? AND completed_at < ?`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	).Scan(&completed, &totalFocus)
	return
}

package store

import (
	"fmt"
	"strconv"

	"github.com/sadopc/focusflow/internal/derive"
)

// FocusGoals loads the saved focus targets. Days missing from the schedule
// fall back to the defaults.
func (s *Store) FocusGoals() (derive.FocusGoals, error) {
	def := derive.DefaultFocusGoals()
	g := derive.FocusGoals{
		DailySessions:    s.intSetting("focus_daily_sessions", def.DailySessions),
		WeeklyFocusHours: s.floatSetting("focus_weekly_hours", def.WeeklyFocusHours),
		DailyFocusHours:  s.floatSetting("focus_daily_hours", def.DailyFocusHours),
		Schedule:         make(map[string]derive.DayGoal, 7),
	}

	rows, err := s.db.Query(`SELECT day, enabled, sessions, focus_hours FROM focus_schedule ORDER BY position`)
	if err != nil {
		return def, fmt.Errorf("list focus schedule: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			day string
			d   derive.DayGoal
		)
		if err := rows.Scan(&day, &d.Enabled, &d.Sessions, &d.FocusHours); err != nil {
			return def, err
		}
		g.Schedule[day] = d
	}
	if err := rows.Err(); err != nil {
		return def, err
	}
	return g.Merge(), nil
}

// SaveFocusGoals replaces the focus targets in one transaction.
func (s *Store) SaveFocusGoals(g derive.FocusGoals) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	settings := map[string]string{
		"focus_daily_sessions": strconv.Itoa(g.DailySessions),
		"focus_weekly_hours":   strconv.FormatFloat(g.WeeklyFocusHours, 'f', -1, 64),
		"focus_daily_hours":    strconv.FormatFloat(g.DailyFocusHours, 'f', -1, 64),
	}
	for k, v := range settings {
		if _, err := tx.Exec(
			`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			k, v,
		); err != nil {
			return fmt.Errorf("save %s: %w", k, err)
		}
	}

	for pos, day := range derive.WeekdayKeys {
		d, ok := g.Schedule[day]
		if !ok {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO focus_schedule (day, position, enabled, sessions, focus_hours) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(day) DO UPDATE SET enabled = excluded.enabled, sessions = excluded.sessions, focus_hours = excluded.focus_hours`,
			day, pos, d.Enabled, d.Sessions, d.FocusHours,
		); err != nil {
			return fmt.Errorf("save schedule %s: %w", day, err)
		}
	}
	return tx.Commit()
}

// ResetFocusGoals restores and returns the defaults.
func (s *Store) ResetFocusGoals() (derive.FocusGoals, error) {
	def := derive.DefaultFocusGoals()
	return def, s.SaveFocusGoals(def)
}

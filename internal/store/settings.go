package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const tokenKey = "auth_token"

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) DeleteSetting(key string) error {
	_, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	return err
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

func (s *Store) intSetting(key string, def int) int {
	v, err := s.GetSetting(key)
	if err != nil {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (s *Store) boolSetting(key string) bool {
	v, err := s.GetSetting(key)
	if err != nil {
		return false
	}
	b, _ := strconv.ParseBool(v)
	return b
}

func (s *Store) floatSetting(key string, def float64) float64 {
	v, err := s.GetSetting(key)
	if err != nil {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// Token returns the stored bearer token, or "" when signed out.
func (s *Store) Token() (string, error) {
	v, err := s.GetSetting(tokenKey)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

func (s *Store) SetToken(token string) error {
	return s.SetSetting(tokenKey, token)
}

func (s *Store) ClearToken() error {
	return s.DeleteSetting(tokenKey)
}

func (s *Store) PomodoroSettings() PomodoroSettings {
	def := DefaultPomodoroSettings()
	return PomodoroSettings{
		Focus:              time.Duration(s.intSetting("pomodoro_focus", int(def.Focus.Seconds()))) * time.Second,
		ShortBreak:         time.Duration(s.intSetting("pomodoro_short_break", int(def.ShortBreak.Seconds()))) * time.Second,
		LongBreak:          time.Duration(s.intSetting("pomodoro_long_break", int(def.LongBreak.Seconds()))) * time.Second,
		LongBreakEvery:     s.intSetting("pomodoro_long_every", def.LongBreakEvery),
		AutoStartBreaks:    s.boolSetting("auto_start_breaks"),
		AutoStartPomodoros: s.boolSetting("auto_start_pomodoros"),
	}
}

func (s *Store) SavePomodoroSettings(p PomodoroSettings) error {
	values := map[string]string{
		"pomodoro_focus":       strconv.Itoa(int(p.Focus.Seconds())),
		"pomodoro_short_break": strconv.Itoa(int(p.ShortBreak.Seconds())),
		"pomodoro_long_break":  strconv.Itoa(int(p.LongBreak.Seconds())),
		"pomodoro_long_every":  strconv.Itoa(p.LongBreakEvery),
		"auto_start_breaks":    strconv.FormatBool(p.AutoStartBreaks),
		"auto_start_pomodoros": strconv.FormatBool(p.AutoStartPomodoros),
	}
	for k, v := range values {
		if err := s.SetSetting(k, v); err != nil {
			return fmt.Errorf("save %s: %w", k, err)
		}
	}
	return nil
}

// PomodoroCount is the running number of completed focus sessions, used to
// decide when the next break is a long one.
func (s *Store) PomodoroCount() int {
	return s.intSetting("pomodoro_count", 0)
}

func (s *Store) SetPomodoroCount(n int) error {
	return s.SetSetting("pomodoro_count", strconv.Itoa(n))
}

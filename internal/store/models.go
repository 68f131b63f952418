package store

import "time"

type Setting struct {
	Key   string
	Value string
}

// SessionRecord is a finished pomodoro or break. Synced is set once the
// server has accepted it and ServerID holds the id it assigned.
type SessionRecord struct {
	ID            int64
	Type          string // pomodoro, shortBreak, longBreak
	Duration      int    // seconds
	ProjectID     string
	ProjectTaskID string
	CompletedAt   time.Time
	ServerID      string
	Synced        bool
}

// PomodoroSettings are the timer preferences.
type PomodoroSettings struct {
	Focus              time.Duration
	ShortBreak         time.Duration
	LongBreak          time.Duration
	LongBreakEvery     int
	AutoStartBreaks    bool
	AutoStartPomodoros bool
}

// DefaultPomodoroSettings: 25/5/15 with a long break every 4th session.
func DefaultPomodoroSettings() PomodoroSettings {
	return PomodoroSettings{
		Focus:          25 * time.Minute,
		ShortBreak:     5 * time.Minute,
		LongBreak:      15 * time.Minute,
		LongBreakEvery: 4,
	}
}

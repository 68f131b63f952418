package derive

import (
	"time"

	"github.com/sadopc/focusflow/internal/api"
)

// MinutesPerSession is the length of one pomodoro when converting sessions
// to focus hours.
const MinutesPerSession = 25

// DayGoal is the target for one weekday.
type DayGoal struct {
	Enabled    bool    `json:"enabled" yaml:"enabled"`
	Sessions   int     `json:"sessions" yaml:"sessions"`
	FocusHours float64 `json:"focusHours" yaml:"focus_hours"`
}

// FocusGoals are the user's pomodoro targets. Schedule is keyed by WeekdayKeys.
type FocusGoals struct {
	DailySessions    int                `json:"dailySessions" yaml:"daily_sessions"`
	WeeklyFocusHours float64            `json:"weeklyFocusHours" yaml:"weekly_focus_hours"`
	DailyFocusHours  float64            `json:"dailyFocusHours" yaml:"daily_focus_hours"`
	Schedule         map[string]DayGoal `json:"schedule" yaml:"schedule"`
}

// DefaultFocusGoals: 8 sessions on weekdays, weekends off.
func DefaultFocusGoals() FocusGoals {
	g := FocusGoals{
		DailySessions:    8,
		WeeklyFocusHours: 20,
		DailyFocusHours:  4,
		Schedule:         make(map[string]DayGoal, 7),
	}
	for _, k := range WeekdayKeys[:5] {
		g.Schedule[k] = DayGoal{Enabled: true, Sessions: 8, FocusHours: 4}
	}
	for _, k := range WeekdayKeys[5:] {
		g.Schedule[k] = DayGoal{Enabled: false, Sessions: 4, FocusHours: 2}
	}
	return g
}

// Merge fills days missing from g's schedule with the defaults.
func (g FocusGoals) Merge() FocusGoals {
	def := DefaultFocusGoals()
	out := g
	out.Schedule = make(map[string]DayGoal, 7)
	for k, v := range def.Schedule {
		out.Schedule[k] = v
	}
	for k, v := range g.Schedule {
		out.Schedule[k] = v
	}
	return out
}

// Today returns the goal for t's weekday, or the daily defaults when the
// schedule has no entry for it.
func (g FocusGoals) Today(t time.Time) DayGoal {
	if d, ok := g.Schedule[WeekdayKey(t)]; ok {
		return d
	}
	return DayGoal{Enabled: true, Sessions: g.DailySessions, FocusHours: g.DailyFocusHours}
}

// SessionHours converts completed pomodoros to hours.
func SessionHours(sessions int) float64 {
	return float64(sessions*MinutesPerSession) / 60
}

// DayProgress is today's sessions against the goal, capped at 100. A zero
// goal counts as one session.
func DayProgress(sessions int, goal DayGoal) int {
	target := goal.Sessions
	if target <= 0 {
		target = 1
	}
	p := sessions * 100 / target
	if p > 100 {
		return 100
	}
	return p
}

// WeekTotals sums the weekly stats.
type WeekTotals struct {
	Sessions   int
	FocusHours float64
	BestDay    api.DayCount
}

func WeeklyTotals(days []api.DayCount) WeekTotals {
	var t WeekTotals
	for _, d := range days {
		t.Sessions += d.Count
		if d.Count > t.BestDay.Count {
			t.BestDay = d
		}
	}
	t.FocusHours = SessionHours(t.Sessions)
	return t
}

// WeeklyTarget sums sessions over the enabled days.
func (g FocusGoals) WeeklyTarget() int {
	total := 0
	for _, d := range g.Schedule {
		if d.Enabled {
			total += d.Sessions
		}
	}
	return total
}

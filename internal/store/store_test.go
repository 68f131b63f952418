package store

import (
	"testing"
	"time"

	"github.com/sadopc/focusflow/internal/derive"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/focusflow.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetToken("abc"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	tok, _ := s2.Token()
	if tok != "abc" {
		t.Fatalf("token not persisted, got %q", tok)
	}
}

func TestPragmasConfigured(t *testing.T) {
	s := newTestStore(t)

	var fk int
	s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsDefaults(t *testing.T) {
	s := newTestStore(t)

	defaults := map[string]string{
		"pomodoro_focus":       "1500",
		"pomodoro_short_break": "300",
		"pomodoro_long_break":  "900",
		"pomodoro_long_every":  "4",
		"auto_start_breaks":    "false",
		"pomodoro_count":       "0",
		"focus_daily_sessions": "8",
	}

	for k, expected := range defaults {
		val, err := s.GetSetting(k)
		if err != nil {
			t.Fatalf("GetSetting(%q): %v", k, err)
		}
		if val != expected {
			t.Fatalf("GetSetting(%q) = %q, want %q", k, val, expected)
		}
	}
}

func TestSetSettingOverwrite(t *testing.T) {
	s := newTestStore(t)
	s.SetSetting("theme", "dark")
	s.SetSetting("theme", "light")
	val, _ := s.GetSetting("theme")
	if val != "light" {
		t.Fatalf("expected light, got %s", val)
	}
}

func TestGetSettingNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetSetting("nope"); err == nil {
		t.Fatal("expected error for missing setting")
	}
}

func TestGetAllSettingsSorted(t *testing.T) {
	s := newTestStore(t)
	all, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) < 10 {
		t.Fatalf("expected at least 10 settings, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Key > all[i].Key {
			t.Fatalf("settings not sorted: %q before %q", all[i-1].Key, all[i].Key)
		}
	}
}

// ============================================================
// Token
// ============================================================

func TestTokenLifecycle(t *testing.T) {
	s := newTestStore(t)

	tok, err := s.Token()
	if err != nil || tok != "" {
		t.Fatalf("expected no token, got %q, %v", tok, err)
	}

	if err := s.SetToken("jwt-1"); err != nil {
		t.Fatal(err)
	}
	tok, _ = s.Token()
	if tok != "jwt-1" {
		t.Fatalf("expected jwt-1, got %q", tok)
	}

	if err := s.ClearToken(); err != nil {
		t.Fatal(err)
	}
	tok, err = s.Token()
	if err != nil || tok != "" {
		t.Fatalf("expected cleared token, got %q, %v", tok, err)
	}
}

// ============================================================
// Pomodoro settings
// ============================================================

func TestPomodoroSettingsRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if got := s.PomodoroSettings(); got != DefaultPomodoroSettings() {
		t.Fatalf("defaults mismatch: %+v", got)
	}

	want := PomodoroSettings{
		Focus:              50 * time.Minute,
		ShortBreak:         10 * time.Minute,
		LongBreak:          30 * time.Minute,
		LongBreakEvery:     3,
		AutoStartBreaks:    true,
		AutoStartPomodoros: false,
	}
	if err := s.SavePomodoroSettings(want); err != nil {
		t.Fatal(err)
	}
	if got := s.PomodoroSettings(); got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestPomodoroCount(t *testing.T) {
	s := newTestStore(t)
	if s.PomodoroCount() != 0 {
		t.Fatal("count should start at 0")
	}
	s.SetPomodoroCount(7)
	if s.PomodoroCount() != 7 {
		t.Fatalf("expected 7, got %d", s.PomodoroCount())
	}
}

// ============================================================
// Focus goals
// ============================================================

func TestFocusGoalsDefaults(t *testing.T) {
	s := newTestStore(t)
	g, err := s.FocusGoals()
	if err != nil {
		t.Fatal(err)
	}
	def := derive.DefaultFocusGoals()
	if g.DailySessions != def.DailySessions || g.WeeklyFocusHours != def.WeeklyFocusHours {
		t.Fatalf("unexpected defaults: %+v", g)
	}
	for _, day := range derive.WeekdayKeys {
		if g.Schedule[day] != def.Schedule[day] {
			t.Fatalf("day %s: got %+v, want %+v", day, g.Schedule[day], def.Schedule[day])
		}
	}
}

func TestSaveAndResetFocusGoals(t *testing.T) {
	s := newTestStore(t)

	g := derive.DefaultFocusGoals()
	g.DailySessions = 10
	g.DailyFocusHours = 4.5
	g.Schedule["sat"] = derive.DayGoal{Enabled: true, Sessions: 6, FocusHours: 2.5}
	if err := s.SaveFocusGoals(g); err != nil {
		t.Fatal(err)
	}

	got, err := s.FocusGoals()
	if err != nil {
		t.Fatal(err)
	}
	if got.DailySessions != 10 || got.DailyFocusHours != 4.5 {
		t.Fatalf("daily targets not saved: %+v", got)
	}
	if got.Schedule["sat"] != g.Schedule["sat"] {
		t.Fatalf("saturday not saved: %+v", got.Schedule["sat"])
	}

	reset, err := s.ResetFocusGoals()
	if err != nil {
		t.Fatal(err)
	}
	got, _ = s.FocusGoals()
	if got.DailySessions != reset.DailySessions || got.Schedule["sat"].Enabled {
		t.Fatalf("reset not applied: %+v", got)
	}
}

// ============================================================
// Session log
// ============================================================

func TestRecordAndSyncSession(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.RecordSession(SessionRecord{Type: "pomodoro", Duration: 1500, ProjectID: "p1"})
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID == 0 || rec.Synced || rec.CompletedAt.IsZero() {
		t.Fatalf("unexpected record: %+v", rec)
	}

	pending, _ := s.UnsyncedSessions()
	if len(pending) != 1 {
		t.Fatalf("expected 1 unsynced, got %d", len(pending))
	}

	if err := s.MarkSessionSynced(rec.ID, "srv-1"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetSession(rec.ID)
	if !got.Synced || got.ServerID != "srv-1" {
		t.Fatalf("session not marked synced: %+v", got)
	}
	pending, _ = s.UnsyncedSessions()
	if len(pending) != 0 {
		t.Fatalf("expected no unsynced, got %d", len(pending))
	}
}

func TestMarkSessionSyncedMissing(t *testing.T) {
	s := newTestStore(t)
	if err := s.MarkSessionSynced(999, "x"); err == nil {
		t.Fatal("expected error for missing session")
	}
}

func TestGetSessionNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetSession(42); err == nil {
		t.Fatal("expected error for missing session")
	}
}

func TestListSessionsAndStats(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	s.RecordSession(SessionRecord{Type: "pomodoro", Duration: 1500, CompletedAt: now.Add(-2 * time.Hour)})
	s.RecordSession(SessionRecord{Type: "shortBreak", Duration: 300, CompletedAt: now.Add(-90 * time.Minute)})
	s.RecordSession(SessionRecord{Type: "pomodoro", Duration: 1200, CompletedAt: now.Add(-time.Hour)})
	s.RecordSession(SessionRecord{Type: "pomodoro", Duration: 1500, CompletedAt: now.Add(-48 * time.Hour)})

	from, to := now.Add(-3*time.Hour), now.Add(time.Hour)
	list, err := s.ListSessions(from, to, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(list))
	}
	if list[0].Duration != 1200 {
		t.Fatal("sessions should be newest first")
	}

	limited, _ := s.ListSessions(from, to, 1)
	if len(limited) != 1 {
		t.Fatalf("limit ignored, got %d", len(limited))
	}

	completed, total, err := s.SessionStats(from, to)
	if err != nil {
		t.Fatal(err)
	}
	if completed != 2 || total != 2700 {
		t.Fatalf("expected 2 sessions / 2700s, got %d / %d", completed, total)
	}
}

func TestSessionStatsEmpty(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	completed, total, err := s.SessionStats(now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if completed != 0 || total != 0 {
		t.Fatal("expected zeros for empty stats")
	}
}

func TestCloseStore(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSetting("pomodoro_focus"); err == nil {
		t.Fatal("expected error after close")
	}
}

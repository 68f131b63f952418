package tui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/reconcile"
	"github.com/sadopc/focusflow/internal/session"
	"github.com/sadopc/focusflow/internal/store"
	"github.com/sadopc/focusflow/internal/tracker"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// ============================================================
// Countdown
// ============================================================

func TestCountdownStartStop(t *testing.T) {
	var c countdown
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if c.running() {
		t.Fatal("countdown should start stopped")
	}

	c.start(25*time.Minute, base)
	if !c.running() || c.paused() {
		t.Fatal("countdown should be running after start")
	}
	if got := c.remaining(base.Add(10 * time.Minute)); got != 15*time.Minute {
		t.Fatalf("remaining = %v, want 15m", got)
	}

	c.stop()
	if c.running() {
		t.Fatal("countdown should be stopped")
	}
	if got := c.remaining(base.Add(time.Hour)); got != 25*time.Minute {
		t.Fatalf("stopped countdown remaining = %v, want full length", got)
	}
}

func TestCountdownPauseResume(t *testing.T) {
	var c countdown
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c.start(10*time.Minute, base)

	c.pause(base.Add(2 * time.Minute))
	if !c.paused() {
		t.Fatal("countdown should be paused")
	}
	if !c.running() {
		t.Fatal("paused countdown is still running (not stopped)")
	}
	if got := c.elapsed(base.Add(30 * time.Minute)); got != 2*time.Minute {
		t.Fatalf("elapsed grew to %v while paused", got)
	}

	c.resume(base.Add(5 * time.Minute))
	if c.paused() {
		t.Fatal("countdown should not be paused after resume")
	}
	if got := c.elapsed(base.Add(6 * time.Minute)); got != 3*time.Minute {
		t.Fatalf("elapsed = %v, want 3m (pause gap excluded)", got)
	}
}

func TestCountdownToggleWhenStopped(t *testing.T) {
	var c countdown
	c.toggle(time.Now())
	if c.running() {
		t.Fatal("toggle should not start the countdown")
	}
}

func TestCountdownFinished(t *testing.T) {
	var c countdown
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c.start(time.Minute, base)
	if c.finished(base.Add(59 * time.Second)) {
		t.Fatal("should not finish early")
	}
	if !c.finished(base.Add(time.Minute)) {
		t.Fatal("should finish at length")
	}
	if got := c.remaining(base.Add(2 * time.Minute)); got != 0 {
		t.Fatalf("remaining past the end = %v, want 0", got)
	}

	c.pause(base.Add(2 * time.Minute))
	if c.finished(base.Add(3 * time.Minute)) {
		t.Fatal("a paused countdown never reports finished")
	}
}

// ============================================================
// Pomodoro
// ============================================================

func newTestPomodoro(t *testing.T, now *time.Time) (pomodoroModel, *store.Store) {
	t.Helper()
	s := newTestStore(t)
	sel := session.NewFocus()
	projects := tracker.NewProjects(tracker.Deps{})
	t.Cleanup(projects.Close)
	focus := tracker.NewFocus(tracker.Deps{}, s, nil, sel)

	p := newPomodoroModel(context.Background(), s, focus, sel, projects)
	p.now = func() time.Time { return *now }
	return p, s
}

func TestPomodoroFocusCompletes(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	p, s := newTestPomodoro(t, &now)

	p, _ = p.update(runes("s"))
	if !p.running() {
		t.Fatal("s should start the focus phase")
	}

	now = now.Add(24 * time.Minute)
	p, _ = p.update(tickMsg(now))
	if p.phase != phaseFocus {
		t.Fatal("phase changed before the countdown finished")
	}

	now = now.Add(time.Minute)
	p, cmd := p.update(tickMsg(now))
	if cmd == nil {
		t.Fatal("completion should return status and log commands")
	}
	if p.phase != phaseShortBreak {
		t.Fatalf("phase = %v, want short break", p.phase)
	}
	if p.count != 1 {
		t.Fatalf("count = %d, want 1", p.count)
	}
	if got := s.PomodoroCount(); got != 1 {
		t.Fatalf("stored count = %d, want 1", got)
	}
	if p.running() {
		t.Fatal("break should not auto-start by default")
	}
}

func TestPomodoroLongBreakEveryFourth(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	p, _ := newTestPomodoro(t, &now)

	for i := 1; i <= 4; i++ {
		if p.phase != phaseFocus {
			p, _ = p.update(tea.KeyMsg{Type: tea.KeyRight})
		}
		p, _ = p.update(runes("s"))
		now = now.Add(25 * time.Minute)
		p, _ = p.update(tickMsg(now))
		if i < 4 && p.phase != phaseShortBreak {
			t.Fatalf("after focus %d phase = %v, want short break", i, p.phase)
		}
	}
	if p.phase != phaseLongBreak {
		t.Fatalf("after fourth focus phase = %v, want long break", p.phase)
	}
}

func TestPomodoroSkipDoesNotCount(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	p, _ := newTestPomodoro(t, &now)

	p, _ = p.update(runes("s"))
	p, _ = p.update(tea.KeyMsg{Type: tea.KeyRight})
	if p.running() {
		t.Fatal("skip should stop the clock")
	}
	if p.count != 0 {
		t.Fatalf("skipped focus counted: %d", p.count)
	}
	if p.phase != phaseShortBreak {
		t.Fatalf("phase = %v, want short break", p.phase)
	}
}

func TestPomodoroCancel(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	p, _ := newTestPomodoro(t, &now)

	p, _ = p.update(runes("s"))
	p, cmd := p.update(runes("x"))
	if p.running() {
		t.Fatal("x should cancel the running phase")
	}
	if cmd == nil {
		t.Fatal("cancel should report a status")
	}
	if p.phase != phaseFocus {
		t.Fatal("cancel should keep the phase")
	}
}

// ============================================================
// Helpers
// ============================================================

func TestClamp(t *testing.T) {
	tests := []struct{ cursor, n, want int }{
		{0, 0, 0},
		{5, 3, 2},
		{-1, 3, 0},
		{1, 3, 1},
	}
	for _, tt := range tests {
		if got := clamp(tt.cursor, tt.n); got != tt.want {
			t.Errorf("clamp(%d, %d) = %d, want %d", tt.cursor, tt.n, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 3); got != "he…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("hi", 5); got != "hi" {
		t.Errorf("short string changed: %q", got)
	}
	if got := truncate("привет", 4); got != "при…" {
		t.Errorf("truncate should count runes: %q", got)
	}
}

func TestFormatting(t *testing.T) {
	if got := formatClock(90 * time.Second); got != "01:30" {
		t.Errorf("formatClock = %q", got)
	}
	if got := formatClock(-time.Second); got != "00:00" {
		t.Errorf("negative clock = %q", got)
	}
	if got := formatDuration(3661 * time.Second); got != "01:01:01" {
		t.Errorf("formatDuration = %q", got)
	}
}

func TestCycles(t *testing.T) {
	if nextStatus(api.StatusTodo) != api.StatusInProgress ||
		nextStatus(api.StatusInProgress) != api.StatusDone ||
		nextStatus(api.StatusDone) != api.StatusTodo {
		t.Error("goal status should cycle todo, in progress, done")
	}
	if nextRole(api.RoleUser) != api.RoleAdmin || nextRole(api.RoleSuperadmin) != api.RoleUser {
		t.Error("role cycle broken")
	}
	if nextPlan("free") != "pro" || nextPlan("enterprise") != "free" || nextPlan("legacy") != "free" {
		t.Error("plan cycle broken")
	}
	if nextProjectStatus("completed") != "backlog" || nextProjectStatus("backlog") != "in-progress" {
		t.Error("project status cycle broken")
	}
	if nextProjectStatus("") != "backlog" {
		t.Error("unknown status should restart at backlog")
	}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string) error
		in      string
		wantErr bool
	}{
		{"amount zero", validAmount, "0", true},
		{"amount", validAmount, "12.50", false},
		{"amount text", validAmount, "abc", true},
		{"optional empty", validOptionalAmount, "", false},
		{"optional negative", validOptionalAmount, "-1", true},
		{"count empty", validCount, "", false},
		{"count text", validCount, "x", true},
		{"count negative", validCount, "-2", true},
		{"minutes zero", validMinutes, "0", true},
		{"minutes", validMinutes, "90", false},
		{"minutes day", validMinutes, "1441", true},
		{"positive", validPositive, "4", false},
		{"positive zero", validPositive, "0", true},
		{"hours", validHours, "2.5", false},
		{"hours week", validHours, "200", true},
		{"deadline empty", validDeadline, "", false},
		{"deadline", validDeadline, "2026-10-19", false},
		{"deadline text", validDeadline, "tomorrow", true},
		{"email", requireEmail, "me@example.com", false},
		{"email missing at", requireEmail, "me", true},
		{"password empty", requirePassword, "", true},
		{"required", required("Name"), " ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("%q: err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestDescribeLocalRules(t *testing.T) {
	if got := describe(tracker.ErrGoalBlocked); got != tracker.ErrGoalBlocked.Error() {
		t.Errorf("local rule text = %q", got)
	}
	if got := describe(errors.New("dial tcp: refused")); got != api.GenericMessage {
		t.Errorf("transport error text = %q, want generic message", got)
	}
}

// ============================================================
// Login
// ============================================================

func TestLoginFailureRebuildsForm(t *testing.T) {
	l := newLoginModel(context.Background(), nil)
	l.setSize(100, 30)
	l, _ = l.reset()
	if l.form == nil {
		t.Fatal("reset should build the form")
	}
	*l.email = "me@example.com"
	*l.password = "secret"

	l, _ = l.update(loginResultMsg{err: &api.Error{Status: http.StatusUnauthorized, Message: "Invalid credentials"}})
	if l.err != "Invalid credentials" {
		t.Fatalf("err = %q", l.err)
	}
	if *l.password != "" {
		t.Fatal("password should be cleared after a failed attempt")
	}
	if *l.email != "me@example.com" {
		t.Fatal("email should be kept")
	}
	if !strings.Contains(l.view(), "Invalid credentials") {
		t.Fatal("view should show the error")
	}
}

// ============================================================
// App
// ============================================================

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds api.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		role := api.RoleUser
		if strings.HasPrefix(creds.Email, "admin") {
			role = api.RoleAdmin
		}
		_ = json.NewEncoder(w).Encode(api.AuthResponse{
			Token: "token",
			User:  api.User{ID: "u1", Email: creds.Email, Role: role, IsActive: true},
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "unavailable"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T) (App, Services) {
	t.Helper()
	s := newTestStore(t)
	srv := fakeServer(t)
	client, err := api.New(api.Config{BaseURL: srv.URL + "/api"}, s)
	if err != nil {
		t.Fatal(err)
	}

	sess := session.New(s, client, nil)
	sel := session.NewFocus()
	deps := tracker.Deps{API: client}
	svc := Services{
		Store:     s,
		Session:   sess,
		Selection: sel,
		Focus:     tracker.NewFocus(deps, s, sess, sel),
		Tasks:     tracker.NewTasks(deps),
		Goals:     tracker.NewGoals(deps),
		Routine:   tracker.NewRoutine(deps),
		Money:     tracker.NewMoney(deps),
		Gym:       tracker.NewGym(deps),
		Projects:  tracker.NewProjects(deps),
		Calendar:  tracker.NewCalendar(deps),
		Admin:     tracker.NewAdmin(deps, func() api.User { return api.User{} }),
		ExportDir: t.TempDir(),
		ToastTTL:  time.Second,
	}
	t.Cleanup(func() { svc.Shutdown(context.Background()) })

	sess.Start(context.Background())
	app := NewApp(context.Background(), svc)
	m, _ := app.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	m, _ = m.Update(sessionMsg(sess.Snapshot()))
	return m.(App), svc
}

func send(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	return m.(App), cmd
}

func signedIn(role api.Role) sessionMsg {
	return sessionMsg(session.Snapshot{
		State: session.StateAuthenticated,
		User:  &api.User{ID: "u1", Email: "me@example.com", Role: role},
	})
}

func TestAppShowsLoginWhenAnonymous(t *testing.T) {
	a, _ := newTestApp(t)
	if a.snapshot.State != session.StateAnonymous {
		t.Fatalf("state = %v, want anonymous", a.snapshot.State)
	}
	if a.login.form == nil {
		t.Fatal("entering the anonymous state should build the login form")
	}
	if !strings.Contains(a.View(), "Welcome to FocusFlow") {
		t.Fatal("anonymous session should show the login screen")
	}

	a, _ = send(t, a, runes("2"))
	if a.activeView != viewDashboard {
		t.Fatal("tab keys must not work while signed out")
	}
}

func TestAppFollowsSessionChanges(t *testing.T) {
	a, svc := newTestApp(t)

	if _, err := svc.Session.Login(context.Background(), "me@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	msg := a.waitForSession()()
	a, _ = send(t, a, msg)
	if a.snapshot.State != session.StateAuthenticated {
		t.Fatalf("state = %v, want authenticated", a.snapshot.State)
	}
	if !strings.Contains(a.View(), "me@example.com") {
		t.Fatal("header should show the signed-in email")
	}

	svc.Session.Logout()
	a, _ = send(t, a, a.waitForSession()())
	if a.snapshot.State != session.StateAnonymous {
		t.Fatal("logout should return to the login screen")
	}
}

func TestAppTabs(t *testing.T) {
	a, _ := newTestApp(t)
	a, _ = send(t, a, signedIn(api.RoleUser))

	a, _ = send(t, a, runes("2"))
	if a.activeView != viewGoals {
		t.Fatalf("view = %v, want goals", a.activeView)
	}
	a, _ = send(t, a, runes("0"))
	if a.activeView != viewGoals {
		t.Fatal("admin tab must be hidden from regular users")
	}
	a, _ = send(t, a, runes("9"))
	a, _ = send(t, a, tea.KeyMsg{Type: tea.KeyTab})
	if a.activeView != viewDashboard {
		t.Fatalf("tab from settings = %v, want wrap to dashboard", a.activeView)
	}
	if strings.Contains(a.View(), "Admin") {
		t.Fatal("admin tab should not be rendered")
	}
}

func TestAppAdminTab(t *testing.T) {
	a, _ := newTestApp(t)
	a, _ = send(t, a, signedIn(api.RoleAdmin))

	a, _ = send(t, a, runes("0"))
	if a.activeView != viewAdmin {
		t.Fatalf("view = %v, want admin", a.activeView)
	}

	a, _ = send(t, a, signedIn(api.RoleUser))
	if a.activeView == viewAdmin {
		t.Fatal("losing the admin role should leave the admin view")
	}
}

func TestAppFormCapturesTabKeys(t *testing.T) {
	a, _ := newTestApp(t)
	a, _ = send(t, a, signedIn(api.RoleAdmin))
	a, _ = send(t, a, runes("0"))

	a, _ = send(t, a, runes("n"))
	if !a.admin.formActive {
		t.Fatal("n should open the new user form")
	}
	a, _ = send(t, a, runes("1"))
	if a.activeView != viewAdmin {
		t.Fatal("tab keys must go to the open form")
	}
	a, _ = send(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.admin.formActive {
		t.Fatal("esc should close the form")
	}
	a, _ = send(t, a, runes("1"))
	if a.activeView != viewDashboard {
		t.Fatal("tab keys should work again once the form is closed")
	}
}

func TestAppToastExpires(t *testing.T) {
	a, _ := newTestApp(t)

	a, cmd := send(t, a, statusMsg{text: "Saved"})
	if a.toast != "Saved" || cmd == nil {
		t.Fatal("status should show a toast and arm its expiry")
	}
	first := a.toastSeq

	a, _ = send(t, a, statusMsg{text: "Saved again"})
	a, _ = send(t, a, toastExpiredMsg{seq: first})
	if a.toast != "Saved again" {
		t.Fatal("an older expiry must not clear a newer toast")
	}
	a, _ = send(t, a, toastExpiredMsg{seq: a.toastSeq})
	if a.toast != "" {
		t.Fatal("toast should clear on its own expiry")
	}
}

func TestAppRevertedWriteShowsError(t *testing.T) {
	a, _ := newTestApp(t)

	a, _ = send(t, a, syncEventMsg(reconcile.Event{Kind: reconcile.EventSynced, Entity: "goal", ID: "g1"}))
	if a.toast != "" {
		t.Fatal("a synced write is silent")
	}

	a, _ = send(t, a, syncEventMsg(reconcile.Event{
		Kind:   reconcile.EventReverted,
		Entity: "goal",
		ID:     "g1",
		Err:    &api.Error{Status: http.StatusBadRequest, Message: "Title is required"},
	}))
	if !a.toastErr || !strings.Contains(a.toast, "Title is required") {
		t.Fatalf("toast = %q (error %v)", a.toast, a.toastErr)
	}
}

func TestAppExportSessions(t *testing.T) {
	a, svc := newTestApp(t)
	a, _ = send(t, a, signedIn(api.RoleUser))
	if _, err := svc.Store.RecordSession(store.SessionRecord{
		Type:        string(api.SessionPomodoro),
		Duration:    1500,
		CompletedAt: time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatal(err)
	}

	a, _ = send(t, a, runes("E"))
	if !a.exportPicking {
		t.Fatal("E should open the export picker")
	}
	a, _ = send(t, a, tea.KeyMsg{Type: tea.KeyDown})
	a, _ = send(t, a, tea.KeyMsg{Type: tea.KeyDown})
	a, cmd := send(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should start the export")
	}

	done, ok := cmd().(exportDoneMsg)
	if !ok {
		t.Fatal("export did not finish")
	}
	if !strings.HasPrefix(done.path, svc.ExportDir) || !strings.HasSuffix(done.path, ".csv") {
		t.Fatalf("path = %q", done.path)
	}
}

func TestAppQuit(t *testing.T) {
	a, _ := newTestApp(t)
	a, _ = send(t, a, signedIn(api.RoleUser))
	_, cmd := send(t, a, runes("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should return tea.Quit")
	}
}

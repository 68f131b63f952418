package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusflow/internal/derive"
	"github.com/sadopc/focusflow/internal/session"
	"github.com/sadopc/focusflow/internal/store"
	"github.com/sadopc/focusflow/internal/tracker"
)

type settingsModel struct {
	ctx    context.Context
	store  *store.Store
	focus  *tracker.Focus
	sess   *session.Session
	width  int
	height int

	settings   []store.Setting
	pomodoro   store.PomodoroSettings
	goals      derive.FocusGoals
	formActive bool
	form       *huh.Form
	formType   string // "settings", "password"

	// Form values as pointers (survive value copies)
	pomodoroWork      *string
	pomodoroBreak     *string
	pomodoroLongBreak *string
	pomodoroCount     *string
	autoBreaks        *bool
	autoPomodoros     *bool
	dailySessions     *string
	weeklyHours       *string
	dailyHours        *string
	schedule          *[7]string
	currentPassword   *string
	newPassword       *string
}

func newSettingsModel(ctx context.Context, s *store.Store, focus *tracker.Focus, sess *session.Session) settingsModel {
	pw, pb, plb, pc := "", "", "", ""
	ds, wh, dh := "", "", ""
	cur, next := "", ""
	ab, ap := false, false
	return settingsModel{
		ctx:               ctx,
		store:             s,
		focus:             focus,
		sess:              sess,
		pomodoroWork:      &pw,
		pomodoroBreak:     &pb,
		pomodoroLongBreak: &plb,
		pomodoroCount:     &pc,
		autoBreaks:        &ab,
		autoPomodoros:     &ap,
		dailySessions:     &ds,
		weeklyHours:       &wh,
		dailyHours:        &dh,
		schedule:          &[7]string{},
		currentPassword:   &cur,
		newPassword:       &next,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
	pomodoro store.PomodoroSettings
	goals    derive.FocusGoals
}

func (s settingsModel) refresh() tea.Cmd {
	st, focus := s.store, s.focus
	return func() tea.Msg {
		settings, _ := st.GetAllSettings()
		goals, err := focus.Goals()
		if err != nil {
			goals = derive.DefaultFocusGoals()
		}
		return settingsDataMsg{settings: settings, pomodoro: st.PomodoroSettings(), goals: goals}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		s.pomodoro = msg.pomodoro
		s.goals = msg.goals
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		case msg.String() == "p":
			return s.showPasswordForm()
		case msg.String() == "R":
			st, focus := s.store, s.focus
			return s, tea.Sequence(
				attempt(s.ctx, func(ctx context.Context) error {
					g, err := st.ResetFocusGoals()
					if err != nil {
						return err
					}
					return focus.SaveGoals(ctx, g)
				}, "Focus goals reset", "Could not reset goals"),
				s.refresh(),
			)
		case msg.String() == "L":
			s.sess.Logout()
			return s, status("Signed out")
		}
	}
	return s, nil
}

func validPositive(s string) error {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err != nil || n < 1 {
		return errors.New("enter a whole number of at least 1")
	}
	return nil
}

func validHours(s string) error {
	if h, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil || h < 0 || h > 168 {
		return errors.New("enter hours")
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	p := s.pomodoro
	*s.pomodoroWork = strconv.Itoa(int(p.Focus.Minutes()))
	*s.pomodoroBreak = strconv.Itoa(int(p.ShortBreak.Minutes()))
	*s.pomodoroLongBreak = strconv.Itoa(int(p.LongBreak.Minutes()))
	*s.pomodoroCount = strconv.Itoa(p.LongBreakEvery)
	*s.autoBreaks = p.AutoStartBreaks
	*s.autoPomodoros = p.AutoStartPomodoros

	g := s.goals.Merge()
	*s.dailySessions = strconv.Itoa(g.DailySessions)
	*s.weeklyHours = strconv.FormatFloat(g.WeeklyFocusHours, 'f', -1, 64)
	*s.dailyHours = strconv.FormatFloat(g.DailyFocusHours, 'f', -1, 64)
	var days []huh.Field
	for i, k := range derive.WeekdayKeys {
		d := g.Schedule[k]
		s.schedule[i] = "0"
		if d.Enabled {
			s.schedule[i] = strconv.Itoa(d.Sessions)
		}
		days = append(days, huh.NewInput().Title(strings.ToUpper(k[:1])+k[1:]+" sessions (0 = rest day)").Value(&s.schedule[i]).Validate(validCount))
	}

	s.formType = "settings"
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Pomodoro work (min)").Value(s.pomodoroWork).Validate(validPositive),
			huh.NewInput().Title("Pomodoro break (min)").Value(s.pomodoroBreak).Validate(validPositive),
			huh.NewInput().Title("Long break (min)").Value(s.pomodoroLongBreak).Validate(validPositive),
			huh.NewInput().Title("Pomodoros before long break").Value(s.pomodoroCount).Validate(validPositive),
			huh.NewConfirm().Title("Start breaks automatically").Value(s.autoBreaks),
			huh.NewConfirm().Title("Start pomodoros automatically").Value(s.autoPomodoros),
		).Title("Pomodoro"),
		huh.NewGroup(
			huh.NewInput().Title("Daily sessions").Value(s.dailySessions).Validate(validPositive),
			huh.NewInput().Title("Weekly focus (hours)").Value(s.weeklyHours).Validate(validHours),
			huh.NewInput().Title("Daily focus (hours)").Value(s.dailyHours).Validate(validHours),
		).Title("Focus goals"),
		huh.NewGroup(days...).Title("Weekly schedule"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) showPasswordForm() (settingsModel, tea.Cmd) {
	*s.currentPassword = ""
	*s.newPassword = ""
	s.formType = "password"
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Current password").EchoMode(huh.EchoModePassword).Value(s.currentPassword).Validate(requirePassword),
			huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).Value(s.newPassword).Validate(func(v string) error {
				if len(v) < 6 {
					return errors.New("at least 6 characters")
				}
				return nil
			}),
		).Title("Change password"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if s.formType == "password" {
			sess, cur, next := s.sess, *s.currentPassword, *s.newPassword
			return s, attempt(s.ctx, func(ctx context.Context) error {
				return sess.UpdatePassword(ctx, cur, next)
			}, "Password changed", "Could not change password")
		}
		return s, tea.Sequence(s.saveSettings(), s.refresh())
	}

	return s, cmd
}

func (s settingsModel) saveSettings() tea.Cmd {
	p := store.PomodoroSettings{
		Focus:              minutes(*s.pomodoroWork),
		ShortBreak:         minutes(*s.pomodoroBreak),
		LongBreak:          minutes(*s.pomodoroLongBreak),
		LongBreakEvery:     atoi(*s.pomodoroCount),
		AutoStartBreaks:    *s.autoBreaks,
		AutoStartPomodoros: *s.autoPomodoros,
	}
	g := derive.FocusGoals{
		DailySessions: atoi(*s.dailySessions),
		Schedule:      make(map[string]derive.DayGoal, 7),
	}
	g.WeeklyFocusHours, _ = strconv.ParseFloat(strings.TrimSpace(*s.weeklyHours), 64)
	g.DailyFocusHours, _ = strconv.ParseFloat(strings.TrimSpace(*s.dailyHours), 64)
	for i, k := range derive.WeekdayKeys {
		n := atoi(s.schedule[i])
		g.Schedule[k] = derive.DayGoal{Enabled: n > 0, Sessions: n, FocusHours: derive.SessionHours(n)}
	}

	st, focus := s.store, s.focus
	return attempt(s.ctx, func(ctx context.Context) error {
		if err := st.SavePomodoroSettings(p); err != nil {
			return err
		}
		return focus.SaveGoals(ctx, g)
	}, "Settings saved", "Could not save settings")
}

func minutes(s string) time.Duration {
	return time.Duration(atoi(s)) * time.Minute
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	label := lipgloss.NewStyle().Width(24)
	row := func(k, v string) string {
		return fmt.Sprintf("  %s %s", label.Render(k), highlightStyle.Render(v))
	}

	rows := []string{titleStyle.Render("Account")}
	if u := s.sess.Snapshot().User; u != nil {
		rows = append(rows,
			row("Email", u.Email),
			row("Role", string(u.Role)),
			row("Plan", u.SubscriptionPlan),
			row("Daily goal", fmt.Sprintf("%d pomodoros", u.DailyGoal)),
		)
	}

	p := s.pomodoro
	rows = append(rows, "", titleStyle.Render("Pomodoro"),
		row("Work", formatSettingValue("pomodoro_focus", strconv.Itoa(int(p.Focus.Seconds())))),
		row("Short break", formatSettingValue("pomodoro_short_break", strconv.Itoa(int(p.ShortBreak.Seconds())))),
		row("Long break", formatSettingValue("pomodoro_long_break", strconv.Itoa(int(p.LongBreak.Seconds())))),
		row("Long break every", fmt.Sprintf("%d sessions", p.LongBreakEvery)),
		row("Auto-start", fmt.Sprintf("breaks %t, pomodoros %t", p.AutoStartBreaks, p.AutoStartPomodoros)),
	)

	g := s.goals.Merge()
	var sched []string
	for _, k := range derive.WeekdayKeys {
		d := g.Schedule[k]
		if d.Enabled {
			sched = append(sched, fmt.Sprintf("%s %d", k, d.Sessions))
		} else {
			sched = append(sched, mutedStyle.Render(k+" off"))
		}
	}
	rows = append(rows, "", titleStyle.Render("Focus goals"),
		row("Daily sessions", strconv.Itoa(g.DailySessions)),
		row("Weekly focus", fmt.Sprintf("%.1f hours", g.WeeklyFocusHours)),
		row("Daily focus", fmt.Sprintf("%.1f hours", g.DailyFocusHours)),
		"  "+strings.Join(sched, "  "),
	)

	var stored []string
	for _, setting := range s.settings {
		if setting.Key == "auth_token" {
			continue
		}
		stored = append(stored, fmt.Sprintf("  %s %s", label.Render(setting.Key), mutedStyle.Render(formatSettingValue(setting.Key, setting.Value))))
	}
	if len(stored) > 0 {
		rows = append(rows, "", titleStyle.Render("Stored on this device"))
		rows = append(rows, stored...)
	}

	rows = append(rows, "", hint("enter: edit", "p: password", "R: reset goals", "L: sign out"))
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case "pomodoro_focus", "pomodoro_short_break", "pomodoro_long_break":
		if secs, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d min", secs/60)
		}
	case "focus_weekly_hours", "focus_daily_hours":
		if h, err := strconv.ParseFloat(v, 64); err == nil {
			return fmt.Sprintf("%.1f hours", h)
		}
	}
	return v
}

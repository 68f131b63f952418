package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/focusflow/internal/export"
	"github.com/sadopc/focusflow/internal/reconcile"
	"github.com/sadopc/focusflow/internal/session"
	"github.com/sadopc/focusflow/internal/store"
	"github.com/sadopc/focusflow/internal/tracker"
)

// Services is everything the views read from and write through.
type Services struct {
	Store     *store.Store
	Session   *session.Session
	Selection *session.Focus

	Focus    *tracker.Focus
	Tasks    *tracker.Tasks
	Goals    *tracker.Goals
	Routine  *tracker.Routine
	Money    *tracker.Money
	Gym      *tracker.Gym
	Projects *tracker.Projects
	Calendar *tracker.Calendar
	Admin    *tracker.Admin

	// Events receives coordinator outcomes; reverted writes become toasts.
	Events    <-chan reconcile.Event
	ExportDir string
	ToastTTL  time.Duration
	Log       *zap.Logger
}

// Shutdown sends pending debounced edits and stops the coordinators, giving
// up on whatever is still unsent when ctx ends. An unsaved routine day is
// written first.
func (s Services) Shutdown(ctx context.Context) {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	if s.Routine != nil && s.Routine.Dirty() {
		if err := s.Routine.Save(ctx); err != nil {
			log.Warn("save routine on exit", zap.Error(err))
		}
	}
	for _, d := range []interface {
		Drain(context.Context) error
	}{s.Goals, s.Tasks, s.Money, s.Gym, s.Projects} {
		if err := d.Drain(ctx); err != nil {
			log.Warn("pending edits dropped on exit", zap.Error(err))
		}
	}
	s.Admin.Close()
}

// App is the root Bubble Tea model.
type App struct {
	ctx    context.Context
	svc    Services
	width  int
	height int

	snapshot session.Snapshot
	changed  chan struct{}

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	login     loginModel
	dashboard dashboardModel
	goals     goalsModel
	routine   routineModel
	money     moneyModel
	gym       gymModel
	projects  projectsModel
	pomodoro  pomodoroModel
	calendar  calendarModel
	settings  settingsModel
	admin     adminModel

	help     help.Model
	toast    string
	toastErr bool
	toastSeq int
}

func NewApp(ctx context.Context, svc Services) App {
	if svc.ToastTTL <= 0 {
		svc.ToastTTL = 3 * time.Second
	}
	if svc.Log == nil {
		svc.Log = zap.NewNop()
	}
	h := help.New()
	h.ShowAll = false

	// A session change only signals; the update loop reads the latest
	// snapshot itself, so a full buffer can drop the signal safely.
	changed := make(chan struct{}, 1)
	svc.Session.Subscribe(func(session.Snapshot) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	return App{
		ctx:        ctx,
		svc:        svc,
		changed:    changed,
		activeView: viewDashboard,
		login:      newLoginModel(ctx, svc.Session),
		dashboard:  newDashboardModel(ctx, svc.Focus, svc.Tasks, svc.Goals, svc.Selection),
		goals:      newGoalsModel(ctx, svc.Goals),
		routine:    newRoutineModel(ctx, svc.Routine),
		money:      newMoneyModel(ctx, svc.Money),
		gym:        newGymModel(ctx, svc.Gym),
		projects:   newProjectsModel(ctx, svc.Projects),
		pomodoro:   newPomodoroModel(ctx, svc.Store, svc.Focus, svc.Selection, svc.Projects),
		calendar:   newCalendarModel(ctx, svc.Calendar),
		settings:   newSettingsModel(ctx, svc.Store, svc.Focus, svc.Session),
		admin:      newAdminModel(ctx, svc.Admin),
		help:       h,
	}
}

// Init delivers the current session as the first sessionMsg; its handler
// arms the session waiter, so exactly one is pending at a time.
func (a App) Init() tea.Cmd {
	sess := a.svc.Session
	return tea.Batch(
		tickCmd(),
		a.waitForEvent(),
		func() tea.Msg { return sessionMsg(sess.Snapshot()) },
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) waitForSession() tea.Cmd {
	changed, sess := a.changed, a.svc.Session
	return func() tea.Msg {
		<-changed
		return sessionMsg(sess.Snapshot())
	}
}

func (a App) waitForEvent() tea.Cmd {
	events := a.svc.Events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return syncEventMsg(ev)
	}
}

// enterState loads whatever the current session state needs on screen.
func (a *App) enterState() tea.Cmd {
	switch a.snapshot.State {
	case session.StateAnonymous:
		var cmd tea.Cmd
		a.login, cmd = a.login.reset()
		return cmd
	case session.StateAuthenticated:
		if a.activeView == viewAdmin && !a.snapshot.IsAdmin() {
			a.activeView = viewDashboard
		}
		return tea.Batch(a.dashboard.refresh(), a.refreshCurrentView())
	}
	return nil
}

func (a App) showToast(text string, isError bool) (App, tea.Cmd) {
	a.toast = text
	a.toastErr = isError
	a.toastSeq++
	seq := a.toastSeq
	return a, tea.Tick(a.svc.ToastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.login.setSize(a.width, contentHeight)
		a.dashboard.setSize(a.width, contentHeight)
		a.goals.setSize(a.width, contentHeight)
		a.routine.setSize(a.width, contentHeight)
		a.money.setSize(a.width, contentHeight)
		a.gym.setSize(a.width, contentHeight)
		a.projects.setSize(a.width, contentHeight)
		a.pomodoro.setSize(a.width, contentHeight)
		a.calendar.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		a.admin.setSize(a.width, contentHeight)
		return a, nil

	case sessionMsg:
		prev := a.snapshot.State
		a.snapshot = session.Snapshot(msg)
		cmds := []tea.Cmd{a.waitForSession()}
		if a.snapshot.State != prev {
			if a.snapshot.State == session.StateAnonymous {
				a.activeView = viewDashboard
				a.svc.Selection.Clear()
			}
			cmds = append(cmds, a.enterState())
		} else if a.activeView == viewAdmin && !a.snapshot.IsAdmin() {
			a.activeView = viewDashboard
			cmds = append(cmds, a.dashboard.refresh())
		}
		return a, tea.Batch(cmds...)

	case syncEventMsg:
		ev := reconcile.Event(msg)
		next := a.waitForEvent()
		if ev.Kind != reconcile.EventReverted {
			return a, next
		}
		a.svc.Log.Debug("write reverted", zap.String("entity", ev.Entity), zap.String("id", ev.ID), zap.Error(ev.Err))
		var cmd tea.Cmd
		a, cmd = a.showToast(fmt.Sprintf("Could not save %s: %s", ev.Entity, describe(ev.Err)), true)
		return a, tea.Batch(next, cmd)

	case statusMsg:
		return a.showToast(msg.text, msg.isError)

	case toastExpiredMsg:
		if msg.seq == a.toastSeq {
			a.toast = ""
		}
		return a, nil

	case tickMsg:
		var cmd tea.Cmd
		a.pomodoro, cmd = a.pomodoro.update(msg)
		return a, tea.Batch(tickCmd(), cmd)

	case exportDoneMsg:
		a.exportPicking = false
		return a.showToast("Exported to "+msg.path, false)

	case loginResultMsg:
		var cmd tea.Cmd
		a.login, cmd = a.login.update(msg)
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.snapshot.State != session.StateAuthenticated {
			var cmd tea.Cmd
			if a.snapshot.State == session.StateAnonymous {
				a.login, cmd = a.login.update(msg)
			}
			return a, cmd
		}

		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A child view capturing input (form, text field, picker) gets every key.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Refresh):
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab):
			next := (a.activeView + 1) % viewState(a.tabCount())
			return a.switchTo(next)
		}
		for i, b := range []key.Binding{keys.Tab1, keys.Tab2, keys.Tab3, keys.Tab4, keys.Tab5, keys.Tab6, keys.Tab7, keys.Tab8, keys.Tab9, keys.Tab0} {
			if key.Matches(msg, b) {
				if i >= a.tabCount() {
					return a, nil
				}
				return a.switchTo(viewState(i))
			}
		}
	}

	return a.route(msg)
}

// route delivers load results to the view that asked for them, whichever
// view is on screen now; everything else goes to the active view.
func (a App) route(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.(type) {
	case dashboardDataMsg:
		a.dashboard, cmd = a.dashboard.update(msg)
	case goalsLoadedMsg, goalInsightsMsg:
		a.goals, cmd = a.goals.update(msg)
	case routineLoadedMsg, routineStreakMsg:
		a.routine, cmd = a.routine.update(msg)
	case moneyLoadedMsg:
		a.money, cmd = a.money.update(msg)
	case gymLoadedMsg, gymStatsMsg, gymHistoryMsg:
		a.gym, cmd = a.gym.update(msg)
	case projectsLoadedMsg, activityMsg:
		a.projects, cmd = a.projects.update(msg)
	case calendarLoadedMsg:
		a.calendar, cmd = a.calendar.update(msg)
	case settingsDataMsg:
		a.settings, cmd = a.settings.update(msg)
	case usersLoadedMsg:
		a.admin, cmd = a.admin.update(msg)
	default:
		return a.updateActiveView(msg)
	}
	return a, cmd
}

func (a App) tabCount() int {
	if a.snapshot.IsAdmin() {
		return len(viewNames)
	}
	return len(viewNames) - 1
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	if v == viewPomodoro {
		a.pomodoro = a.pomodoro.refresh()
		return a, nil
	}
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewGoals:
		a.goals, cmd = a.goals.update(msg)
	case viewRoutine:
		a.routine, cmd = a.routine.update(msg)
	case viewMoney:
		a.money, cmd = a.money.update(msg)
	case viewGym:
		a.gym, cmd = a.gym.update(msg)
	case viewProjects:
		a.projects, cmd = a.projects.update(msg)
	case viewPomodoro:
		a.pomodoro, cmd = a.pomodoro.update(msg)
	case viewCalendar:
		a.calendar, cmd = a.calendar.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	case viewAdmin:
		a.admin, cmd = a.admin.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.formActive()
	case viewGoals:
		return a.goals.capturing()
	case viewRoutine:
		return a.routine.formActive
	case viewMoney:
		return a.money.formActive
	case viewGym:
		return a.gym.formActive
	case viewProjects:
		return a.projects.capturing()
	case viewPomodoro:
		return a.pomodoro.picking
	case viewSettings:
		return a.settings.formActive
	case viewAdmin:
		return a.admin.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.refresh()
	case viewGoals:
		return a.goals.refresh()
	case viewRoutine:
		return a.routine.refresh()
	case viewMoney:
		return a.money.refresh()
	case viewGym:
		return a.gym.refresh()
	case viewProjects:
		return a.projects.refresh()
	case viewCalendar:
		return a.calendar.refresh()
	case viewSettings:
		return a.settings.refresh()
	case viewAdmin:
		return a.admin.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	var content string
	switch a.snapshot.State {
	case session.StateLoading:
		content = lipgloss.Place(a.width, contentHeight, lipgloss.Center, lipgloss.Center, mutedStyle.Render("Restoring session..."))
	case session.StateAnonymous:
		content = a.login.view()
	default:
		content = a.activeContent()
		if a.exportPicking {
			content = a.renderExportPicker()
		}
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) activeContent() string {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.view()
	case viewGoals:
		return a.goals.view()
	case viewRoutine:
		return a.routine.view()
	case viewMoney:
		return a.money.view()
	case viewGym:
		return a.gym.view()
	case viewProjects:
		return a.projects.view()
	case viewPomodoro:
		return a.pomodoro.view()
	case viewCalendar:
		return a.calendar.view()
	case viewSettings:
		return a.settings.view()
	case viewAdmin:
		return a.admin.view()
	}
	return ""
}

func (a App) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("focusflow")
	if a.snapshot.State != session.StateAuthenticated {
		return headerStyle.Render(title)
	}

	var tabs []string
	for i, name := range viewNames[:a.tabCount()] {
		label := fmt.Sprintf("%d %s", (i+1)%10, name)
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	user := ""
	if a.snapshot.User != nil {
		user = mutedStyle.Render("  " + a.snapshot.User.Email)
	}
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(user)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, user, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	left := ""
	if a.snapshot.State == session.StateAuthenticated {
		left = footerStyle.Render(a.help.View(keys))
	}

	clock := ""
	if a.pomodoro.running() {
		remaining := formatClock(a.pomodoro.clock.remaining(a.pomodoro.now()))
		clock = successStyle.Render(" ● " + remaining)
		if a.pomodoro.clock.paused() {
			clock = warningStyle.Render(" ⏸ " + remaining)
		}
	}

	toast := ""
	if a.toast != "" {
		if a.toastErr {
			toast = toastErrorStyle.Render(a.toast)
		} else {
			toast = toastStyle.Render(a.toast)
		}
	}

	right := clock + toast
	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportChoices = []string{
	"Transactions of the month (CSV)",
	"Transactions of the month (JSON)",
	"Pomodoro session log (CSV)",
	"Pomodoro session log (JSON)",
}

func (a App) renderExportPicker() string {
	rows := []string{
		titleStyle.Render("Export") + mutedStyle.Render("  "+a.svc.Money.Month().String()),
		"",
	}
	for i, f := range exportChoices {
		style := normalItemStyle
		if i == a.exportCursor {
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursorPrefix(i == a.exportCursor)+f))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportChoices)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) exportDir() string {
	if a.svc.ExportDir != "" {
		return a.svc.ExportDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func (a App) doExport(choice int) tea.Cmd {
	money, projects, st := a.svc.Money, a.svc.Projects, a.svc.Store
	dir := a.exportDir()
	return func() tea.Msg {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		month := money.Month()
		stamp := time.Now().Format("2006-01-02")
		var path string
		var err error
		switch choice {
		case 0:
			path = filepath.Join(dir, fmt.Sprintf("focusflow-transactions-%04d-%02d.csv", month.Year, int(month.Month)))
			err = export.TransactionsCSV(money.Transactions(), path)
		case 1:
			path = filepath.Join(dir, fmt.Sprintf("focusflow-transactions-%04d-%02d.json", month.Year, int(month.Month)))
			err = export.TransactionsJSON(money.Transactions(), month, path)
		default:
			sessions, lerr := st.ListSessions(time.Unix(0, 0), time.Now().Add(time.Minute), 0)
			if lerr != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", lerr), isError: true}
			}
			names := make(map[string]string)
			for _, archived := range []bool{false, true} {
				for _, p := range projects.List(archived) {
					names[p.ID] = p.Name
				}
			}
			if choice == 2 {
				path = filepath.Join(dir, fmt.Sprintf("focusflow-sessions-%s.csv", stamp))
				err = export.SessionsCSV(sessions, names, path)
			} else {
				path = filepath.Join(dir, fmt.Sprintf("focusflow-sessions-%s.json", stamp))
				err = export.SessionsJSON(sessions, names, path)
			}
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}

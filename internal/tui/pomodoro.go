package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/session"
	"github.com/sadopc/focusflow/internal/store"
	"github.com/sadopc/focusflow/internal/tracker"
)

type pomodoroPhase int

const (
	phaseFocus pomodoroPhase = iota
	phaseShortBreak
	phaseLongBreak
)

var phaseNames = map[pomodoroPhase]string{
	phaseFocus:      "FOCUS",
	phaseShortBreak: "SHORT BREAK",
	phaseLongBreak:  "LONG BREAK",
}

func (p pomodoroPhase) sessionType() api.SessionType {
	switch p {
	case phaseShortBreak:
		return api.SessionShortBreak
	case phaseLongBreak:
		return api.SessionLongBreak
	}
	return api.SessionPomodoro
}

// pickItem is one row of the attribution picker.
type pickItem struct {
	label     string
	projectID string
	taskID    string
}

type pomodoroModel struct {
	ctx      context.Context
	store    *store.Store
	focus    *tracker.Focus
	sel      *session.Focus
	projects *tracker.Projects
	now      func() time.Time

	width  int
	height int

	settings store.PomodoroSettings
	phase    pomodoroPhase
	clock    countdown
	count    int

	picking      bool
	pickerCursor int
	pickerItems  []pickItem
}

func newPomodoroModel(ctx context.Context, s *store.Store, focus *tracker.Focus, sel *session.Focus, projects *tracker.Projects) pomodoroModel {
	p := pomodoroModel{
		ctx:      ctx,
		store:    s,
		focus:    focus,
		sel:      sel,
		projects: projects,
		now:      time.Now,
	}
	p.loadSettings()
	return p
}

func (p *pomodoroModel) loadSettings() {
	p.settings = p.store.PomodoroSettings()
	if p.settings.LongBreakEvery < 1 {
		p.settings.LongBreakEvery = store.DefaultPomodoroSettings().LongBreakEvery
	}
	p.count = p.store.PomodoroCount()
}

func (p *pomodoroModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p pomodoroModel) running() bool { return p.clock.running() }

func (p pomodoroModel) length(ph pomodoroPhase) time.Duration {
	switch ph {
	case phaseShortBreak:
		return p.settings.ShortBreak
	case phaseLongBreak:
		return p.settings.LongBreak
	}
	return p.settings.Focus
}

// refresh reloads settings while the timer is idle.
func (p pomodoroModel) refresh() pomodoroModel {
	if !p.clock.running() {
		p.loadSettings()
	}
	return p
}

func (p pomodoroModel) update(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if p.clock.finished(p.now()) {
			return p.complete()
		}
		return p, nil

	case tea.KeyMsg:
		if p.picking {
			return p.updatePicker(msg)
		}
		switch {
		case key.Matches(msg, keys.Start):
			if !p.clock.running() {
				p.clock.start(p.length(p.phase), p.now())
			}
		case key.Matches(msg, keys.Toggle):
			p.clock.toggle(p.now())
		case key.Matches(msg, keys.Stop):
			if p.clock.running() {
				p.clock.stop()
				return p, status(strings.ToLower(phaseNames[p.phase]) + " cancelled")
			}
		case key.Matches(msg, keys.Right):
			p.clock.stop()
			p.phase = p.next()
			return p, nil
		case key.Matches(msg, keys.Enter):
			p.pickerItems = p.buildPicker()
			p.pickerCursor = 0
			p.picking = true
		}
	}
	return p, nil
}

// next is the phase that follows the current one without logging anything.
func (p pomodoroModel) next() pomodoroPhase {
	if p.phase != phaseFocus {
		return phaseFocus
	}
	if (p.count+1)%p.settings.LongBreakEvery == 0 {
		return phaseLongBreak
	}
	return phaseShortBreak
}

// complete logs the finished phase and moves to the next one. Every
// LongBreakEvery-th focus session is followed by a long break.
func (p pomodoroModel) complete() (pomodoroModel, tea.Cmd) {
	finished := p.phase
	length := p.clock.length
	p.clock.stop()

	var autoStart bool
	var text string
	if finished == phaseFocus {
		p.count++
		_ = p.store.SetPomodoroCount(p.count)
		if p.count%p.settings.LongBreakEvery == 0 {
			p.phase = phaseLongBreak
		} else {
			p.phase = phaseShortBreak
		}
		autoStart = p.settings.AutoStartBreaks
		text = "Pomodoro complete, break time! \a"
	} else {
		p.phase = phaseFocus
		autoStart = p.settings.AutoStartPomodoros
		text = "Break over, back to focus \a"
	}
	if autoStart {
		p.clock.start(p.length(p.phase), p.now())
	}
	return p, tea.Batch(status(text), p.logPhase(finished, length))
}

func (p pomodoroModel) logPhase(ph pomodoroPhase, length time.Duration) tea.Cmd {
	focus, ctx := p.focus, p.ctx
	return func() tea.Msg {
		if err := focus.LogPhase(ctx, ph.sessionType(), length); err != nil {
			return statusMsg{text: "Session saved locally, will sync later", isError: true}
		}
		return nil
	}
}

func (p pomodoroModel) buildPicker() []pickItem {
	items := []pickItem{{label: "No project"}}
	for _, pr := range p.projects.List(false) {
		items = append(items, pickItem{label: pr.Name, projectID: pr.ID})
		for _, t := range pr.Tasks {
			if t.IsCompleted {
				continue
			}
			items = append(items, pickItem{label: "  " + t.Title, projectID: pr.ID, taskID: t.ID})
		}
	}
	return items
}

func (p pomodoroModel) updatePicker(msg tea.KeyMsg) (pomodoroModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.pickerCursor > 0 {
			p.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if p.pickerCursor < len(p.pickerItems)-1 {
			p.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		item := p.pickerItems[p.pickerCursor]
		switch {
		case item.taskID != "":
			p.sel.SetProjectTask(item.projectID, item.taskID)
		case item.projectID != "":
			p.sel.SetProject(item.projectID)
		default:
			p.sel.Clear()
		}
		p.picking = false
		return p, status("Timer attributed to " + strings.TrimSpace(item.label))
	case key.Matches(msg, keys.Back):
		p.picking = false
	}
	return p, nil
}

func (p pomodoroModel) selectionLabel() string {
	sel := p.sel.Selection()
	if sel.ProjectID == "" {
		if sel.ActiveTask != nil {
			return sel.ActiveTask.Title
		}
		return "No project selected"
	}
	pr, ok := p.projects.Get(sel.ProjectID)
	if !ok {
		return "Unknown project"
	}
	label := pr.Name
	for _, t := range pr.Tasks {
		if t.ID == sel.ProjectTaskID {
			label += " / " + t.Title
		}
	}
	return label
}

func (p pomodoroModel) view() string {
	w := p.width - 4
	if p.picking {
		return p.renderPicker(w)
	}

	now := p.now()
	style := accentStyle
	switch p.phase {
	case phaseShortBreak:
		style = successStyle
	case phaseLongBreak:
		style = highlightStyle
	}

	clock := style.Bold(true).Width(w - 4).Align(lipgloss.Center).Render(formatClock(p.clock.remaining(now)))
	label := style.Bold(true).Render(phaseNames[p.phase])
	switch {
	case p.clock.paused():
		label += warningStyle.Render("  PAUSED")
	case !p.clock.running():
		label += mutedStyle.Render("  ready")
	}

	var controls string
	switch {
	case !p.clock.running():
		controls = hint("s: start", "→: skip", "enter: attribute")
	case p.phase == phaseFocus:
		controls = hint("space: pause/resume", "x: cancel", "enter: attribute")
	default:
		controls = hint("space: pause/resume", "→: skip break", "x: cancel")
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("Pomodoro Timer"),
		"",
		clock,
		label,
		"",
		p.renderProgress(),
		highlightStyle.Render(p.selectionLabel()),
		"",
		controls,
	)
	return panelStyle.Width(w).Render(content)
}

func (p pomodoroModel) renderProgress() string {
	every := p.settings.LongBreakEvery
	done := p.count % every
	var parts []string
	for i := 0; i < every; i++ {
		switch {
		case i < done:
			parts = append(parts, successStyle.Render("●"))
		case i == done && p.phase == phaseFocus && p.clock.running():
			parts = append(parts, accentStyle.Render("◐"))
		default:
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	return strings.Join(parts, " ") + mutedStyle.Render(fmt.Sprintf("  %d completed", p.count))
}

func (p pomodoroModel) renderPicker(w int) string {
	rows := []string{titleStyle.Render("Attribute sessions to"), ""}
	for i, item := range p.pickerItems {
		style := normalItemStyle
		if i == p.pickerCursor {
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursorPrefix(i == p.pickerCursor)+item.label))
	}
	rows = append(rows, "", hint("enter: select", "esc: cancel"))
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

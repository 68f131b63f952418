package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusflow/internal/session"
	"github.com/sadopc/focusflow/internal/tracker"
)

type dashboardModel struct {
	ctx   context.Context
	focus *tracker.Focus
	tasks *tracker.Tasks
	goals *tracker.Goals
	sel   *session.Focus

	width  int
	height int

	summary tracker.FocusSummary
	loaded  bool

	cursor    int
	adding    bool
	renamedID string
	input     textinput.Model
}

func newDashboardModel(ctx context.Context, focus *tracker.Focus, tasks *tracker.Tasks, goals *tracker.Goals, sel *session.Focus) dashboardModel {
	in := textinput.New()
	in.Placeholder = "What needs doing?"
	in.CharLimit = 200
	return dashboardModel{
		ctx:   ctx,
		focus: focus,
		tasks: tasks,
		goals: goals,
		sel:   sel,
		input: in,
	}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
	d.input.Width = max(w-12, 10)
}

type dashboardDataMsg struct {
	summary tracker.FocusSummary
	synced  int
	err     error
}

// refresh resends unsynced sessions before reading the stats so they count.
func (d dashboardModel) refresh() tea.Cmd {
	ctx, focus, tasks, goals := d.ctx, d.focus, d.tasks, d.goals
	return tea.Batch(
		func() tea.Msg {
			synced, _ := focus.SyncPending(ctx)
			summary, err := focus.Summary(ctx)
			return dashboardDataMsg{summary: summary, synced: synced, err: err}
		},
		func() tea.Msg {
			if err := tasks.Load(ctx); err != nil {
				return errorStatus("Could not load tasks", err)
			}
			return nil
		},
		func() tea.Msg {
			if err := goals.Load(ctx); err != nil {
				return errorStatus("Could not load goals", err)
			}
			return nil
		},
	)
}

func (d dashboardModel) formActive() bool { return d.adding }

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		if msg.err != nil {
			return d, failure("Could not load focus stats", msg.err)
		}
		d.summary = msg.summary
		d.loaded = true
		if msg.synced > 0 {
			return d, status(fmt.Sprintf("Synced %d offline session(s)", msg.synced))
		}
		return d, nil

	case tea.KeyMsg:
		if d.adding {
			return d.updateInput(msg)
		}
		open := d.tasks.Open()
		switch {
		case key.Matches(msg, keys.Up):
			if d.cursor > 0 {
				d.cursor--
			}
		case key.Matches(msg, keys.Down):
			if d.cursor < len(open)-1 {
				d.cursor++
			}
		case key.Matches(msg, keys.New):
			d.adding = true
			d.renamedID = ""
			d.input.SetValue("")
			return d, d.input.Focus()
		case key.Matches(msg, keys.Edit):
			if len(open) > 0 {
				t := open[clamp(d.cursor, len(open))]
				d.adding = true
				d.renamedID = t.ID
				d.input.SetValue(t.Title)
				return d, d.input.Focus()
			}
		case key.Matches(msg, keys.Toggle):
			if len(open) > 0 {
				t, tasks := open[clamp(d.cursor, len(open))], d.tasks
				return d, optimistic(func() error { return tasks.Toggle(t.ID) }, "Could not update task")
			}
		case key.Matches(msg, keys.Delete):
			if len(open) > 0 {
				t, tasks := open[clamp(d.cursor, len(open))], d.tasks
				d.cursor = clamp(d.cursor, len(open)-1)
				return d, optimistic(func() error { return tasks.Delete(t.ID) }, "Could not delete task")
			}
		case key.Matches(msg, keys.Enter):
			if len(open) > 0 {
				t := open[clamp(d.cursor, len(open))]
				d.sel.SetActiveTask(&t)
				return d, status("Focusing on " + t.Title)
			}
		}
	}
	return d, nil
}

func (d dashboardModel) updateInput(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		d.adding = false
		d.input.Blur()
		return d, nil
	case "enter":
		title := strings.TrimSpace(d.input.Value())
		d.adding = false
		d.input.Blur()
		if title == "" {
			return d, nil
		}
		tasks := d.tasks
		if id := d.renamedID; id != "" {
			return d, inline(tasks.Rename(id, title), "Could not rename task")
		}
		return d, attempt(d.ctx, func(ctx context.Context) error {
			_, err := tasks.Create(ctx, title, "medium")
			return err
		}, "Task added", "Could not add task")
	}
	var cmd tea.Cmd
	d.input, cmd = d.input.Update(msg)
	return d, cmd
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	w := d.width - 4
	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderFocusPanel(w),
		d.renderGoalsPanel(w),
		d.renderTasksPanel(w),
	)
}

func (d dashboardModel) renderFocusPanel(w int) string {
	title := titleStyle.Render("Today's focus")
	if !d.loaded {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("Loading...")))
	}
	s := d.summary
	var today string
	if s.Goal.Enabled {
		today = fmt.Sprintf("%d / %d pomodoros  %s %d%%", s.Today, s.Goal.Sessions, progressBar(s.Progress, 20), s.Progress)
	} else {
		today = fmt.Sprintf("%d pomodoros  %s", s.Today, mutedStyle.Render("rest day"))
	}
	week := fmt.Sprintf("This week: %d sessions, %.1fh focus, target %d",
		s.Totals.Sessions, s.Totals.FocusHours, s.WeeklyTarget)
	if s.Totals.BestDay.Count > 0 {
		week += mutedStyle.Render(fmt.Sprintf("  best %s (%d)", s.Totals.BestDay.Date, s.Totals.BestDay.Count))
	}

	var active string
	if t := d.sel.Selection().ActiveTask; t != nil {
		active = highlightStyle.Render("Focusing on: " + t.Title)
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		today,
		week,
		active,
		weeklyFocusChart(s.Week, d.width, d.height/2),
	))
}

func (d dashboardModel) renderGoalsPanel(w int) string {
	c := d.goals.Stats()
	line := fmt.Sprintf("%s  %d total  %s  %s  %s",
		titleStyle.Render("Goals"),
		c.Total,
		mutedStyle.Render(fmt.Sprintf("%d todo", c.Todo)),
		highlightStyle.Render(fmt.Sprintf("%d in progress", c.InProgress)),
		successStyle.Render(fmt.Sprintf("%d done", c.Done)),
	)
	if c.Overdue > 0 {
		line += "  " + errorStyle.Render(fmt.Sprintf("%d overdue", c.Overdue))
	}
	return panelStyle.Width(w).Render(line)
}

func (d dashboardModel) renderTasksPanel(w int) string {
	rows := []string{titleStyle.Render("Tasks")}
	open := d.tasks.Open()
	if len(open) == 0 {
		rows = append(rows, mutedStyle.Render("Nothing open. Press n to add a task."))
	}
	cursor := clamp(d.cursor, len(open))
	for i, t := range open {
		style := normalItemStyle
		if i == cursor && !d.adding {
			style = selectedItemStyle
		}
		line := style.Render(cursorPrefix(i == cursor && !d.adding)+t.Title)
		if t.Priority != "" {
			line += mutedStyle.Render(" [" + t.Priority + "]")
		}
		rows = append(rows, line)
	}
	if d.adding {
		rows = append(rows, "", d.input.View())
	}
	rows = append(rows, "", hint("n: new task", "e: rename", "space: done", "d: delete", "enter: focus"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

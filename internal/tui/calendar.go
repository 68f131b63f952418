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
	"github.com/sadopc/focusflow/internal/derive"
	"github.com/sadopc/focusflow/internal/tracker"
)

type calendarModel struct {
	ctx context.Context
	cal *tracker.Calendar
	now func() time.Time

	width  int
	height int

	month  derive.Month
	day    time.Time
	events map[string][]api.CalendarEvent
	loaded bool
}

func newCalendarModel(ctx context.Context, cal *tracker.Calendar) calendarModel {
	today := derive.Midnight(time.Now())
	return calendarModel{
		ctx:   ctx,
		cal:   cal,
		now:   time.Now,
		month: derive.MonthOf(today),
		day:   today,
	}
}

func (c *calendarModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

type calendarLoadedMsg struct {
	month  derive.Month
	events map[string][]api.CalendarEvent
	err    error
}

func (c calendarModel) refresh() tea.Cmd {
	ctx, cal, month := c.ctx, c.cal, c.month
	return func() tea.Msg {
		events, err := cal.MonthEvents(ctx, month)
		return calendarLoadedMsg{month: month, events: events, err: err}
	}
}

// moveTo selects day, reloading when it falls in another month.
func (c calendarModel) moveTo(day time.Time) (calendarModel, tea.Cmd) {
	c.day = day
	if m := derive.MonthOf(day); m != c.month {
		c.month = m
		c.loaded = false
		return c, c.refresh()
	}
	return c, nil
}

func (c calendarModel) update(msg tea.Msg) (calendarModel, tea.Cmd) {
	switch msg := msg.(type) {
	case calendarLoadedMsg:
		if msg.month != c.month {
			return c, nil
		}
		if msg.err != nil {
			return c, failure("Could not load calendar", msg.err)
		}
		c.events = msg.events
		c.loaded = true
		return c, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			return c.moveTo(c.day.AddDate(0, 0, -1))
		case key.Matches(msg, keys.Right):
			return c.moveTo(c.day.AddDate(0, 0, 1))
		case key.Matches(msg, keys.Up):
			return c.moveTo(c.day.AddDate(0, 0, -7))
		case key.Matches(msg, keys.Down):
			return c.moveTo(c.day.AddDate(0, 0, 7))
		case key.Matches(msg, keys.MoveUp):
			return c.moveTo(c.day.AddDate(0, -1, 0))
		case key.Matches(msg, keys.MoveDown):
			return c.moveTo(c.day.AddDate(0, 1, 0))
		case key.Matches(msg, keys.Enter):
			return c.moveTo(derive.Midnight(c.now()))
		}
	}
	return c, nil
}

func eventColor(ev api.CalendarEvent) string {
	if ev.Color != "" {
		return ev.Color
	}
	switch ev.Type {
	case "goal":
		return string(colorPrimary)
	case "project":
		return string(colorHighlight)
	case "transaction":
		return string(colorWarning)
	}
	return string(colorMuted)
}

func (c calendarModel) view() string {
	w := c.width - 4
	cellW := max((w-4)/7-1, 4)

	first, _ := tracker.GridRange(c.month)
	today := c.now().Format(derive.DateLayout)
	selected := c.day.Format(derive.DateLayout)

	header := titleStyle.Render("Calendar") + "  " + highlightStyle.Render("‹ "+c.month.String()+" ›")
	if !c.loaded {
		header += mutedStyle.Render("  loading...")
	}
	rows := []string{header, ""}

	var names []string
	for _, d := range []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"} {
		names = append(names, mutedStyle.Width(cellW).Render(d))
	}
	rows = append(rows, strings.Join(names, " "))

	for week := 0; week < 6; week++ {
		var cells []string
		for wd := 0; wd < 7; wd++ {
			day := first.AddDate(0, 0, week*7+wd)
			date := day.Format(derive.DateLayout)
			label := fmt.Sprintf("%2d", day.Day())
			evs := c.events[date]
			var dots string
			for i, ev := range evs {
				if i == 3 {
					dots += mutedStyle.Render("+")
					break
				}
				dots += dot(eventColor(ev))
			}

			style := lipgloss.NewStyle().Width(cellW)
			switch {
			case date == selected:
				style = style.Background(colorSubtle).Bold(true)
			case day.Month() != c.month.Month:
				style = style.Foreground(colorSubtle)
			}
			if date == today {
				label = accentStyle.Render(label)
			}
			cells = append(cells, style.Render(label+" "+dots))
		}
		rows = append(rows, strings.Join(cells, " "))
	}

	rows = append(rows, "", titleStyle.Render(c.day.Format("Monday, January 2")))
	evs := c.events[selected]
	if len(evs) == 0 {
		rows = append(rows, mutedStyle.Render("  Nothing scheduled"))
	}
	for _, ev := range evs {
		line := fmt.Sprintf("  %s %-11s %s", dot(eventColor(ev)), ev.Type, ev.Title)
		if ev.Status != "" {
			line += mutedStyle.Render("  " + ev.Status)
		}
		if !ev.Amount.IsZero() {
			line += "  " + derive.FormatINR(ev.Amount)
		}
		rows = append(rows, line)
	}

	rows = append(rows, "", hint("←/→: day", "↑/↓: week", "K/J: month", "enter: today"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

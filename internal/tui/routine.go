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

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/derive"
	"github.com/sadopc/focusflow/internal/tracker"
)

type routineFields struct {
	Title    string
	Category string
	Duration string
	Note     string
	Action   string
	Template string
	Name     string
}

type routineModel struct {
	ctx     context.Context
	routine *tracker.Routine
	now     func() time.Time

	width  int
	height int

	cursor int
	streak api.RoutineStreak

	formActive bool
	form       *huh.Form
	formType   string // "entry", "template"
	slot       string
	fields     *routineFields
}

func newRoutineModel(ctx context.Context, routine *tracker.Routine) routineModel {
	m := routineModel{
		ctx:     ctx,
		routine: routine,
		now:     time.Now,
		fields:  &routineFields{},
	}
	m.cursor = m.activeIndex()
	return m
}

func (r *routineModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

// activeIndex is the slot of the current hour, used as the initial cursor.
func (r routineModel) activeIndex() int {
	now := r.now()
	current := derive.ActiveSlot(float64(now.Hour()) + float64(now.Minute())/60)
	for i, s := range derive.TimeSlots() {
		if s.Key == current {
			return i
		}
	}
	return 0
}

type routineLoadedMsg struct{ err error }

type routineStreakMsg struct {
	streak api.RoutineStreak
	err    error
}

func (r routineModel) refresh() tea.Cmd {
	return r.load(r.routine.Date())
}

func (r routineModel) load(date string) tea.Cmd {
	ctx, routine := r.ctx, r.routine
	return tea.Batch(
		func() tea.Msg {
			if err := routine.Load(ctx, date); err != nil {
				return routineLoadedMsg{err: err}
			}
			if day, ok := derive.ParseDate(date, time.Local); ok {
				if _, err := routine.LoadCalendar(ctx, day.Month(), day.Year()); err != nil {
					return routineLoadedMsg{err: err}
				}
			}
			return routineLoadedMsg{}
		},
		func() tea.Msg {
			if err := routine.LoadTemplates(ctx); err != nil {
				return errorStatus("Could not load templates", err)
			}
			return nil
		},
		func() tea.Msg {
			s, err := routine.Streak(ctx)
			return routineStreakMsg{streak: s, err: err}
		},
	)
}

// shift moves to another day, saving unsaved edits first.
func (r routineModel) shift(days int) tea.Cmd {
	day, ok := derive.ParseDate(r.routine.Date(), time.Local)
	if !ok {
		day = r.now()
	}
	next := day.AddDate(0, 0, days).Format(derive.DateLayout)
	if !r.routine.Dirty() {
		return r.load(next)
	}
	ctx, routine, load := r.ctx, r.routine, r.load(next)
	return tea.Sequence(
		func() tea.Msg {
			if err := routine.Save(ctx); err != nil {
				return errorStatus("Could not save routine", err)
			}
			return nil
		},
		load,
	)
}

func (r routineModel) selectedSlot() derive.Slot {
	slots := derive.TimeSlots()
	return slots[clamp(r.cursor, len(slots))]
}

func (r routineModel) update(msg tea.Msg) (routineModel, tea.Cmd) {
	if r.formActive && r.form != nil {
		return r.updateForm(msg)
	}

	switch msg := msg.(type) {
	case routineLoadedMsg:
		if msg.err != nil {
			return r, failure("Could not load routine", msg.err)
		}
		return r, nil

	case routineStreakMsg:
		if msg.err == nil {
			r.streak = msg.streak
		}
		return r, nil

	case tea.KeyMsg:
		return r.updateKeys(msg)
	}
	return r, nil
}

func (r routineModel) updateKeys(msg tea.KeyMsg) (routineModel, tea.Cmd) {
	slots := derive.TimeSlots()
	slot := r.selectedSlot()
	routine := r.routine
	_, hasEntry := routine.Entry(slot.Key)

	switch {
	case key.Matches(msg, keys.Up):
		if r.cursor > 0 {
			r.cursor--
		}
	case key.Matches(msg, keys.Down):
		if r.cursor < len(slots)-1 {
			r.cursor++
		}
	case key.Matches(msg, keys.Left):
		return r, r.shift(-1)
	case key.Matches(msg, keys.Right):
		return r, r.shift(1)
	case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit), key.Matches(msg, keys.New):
		return r.showEntryForm(slot)
	case key.Matches(msg, keys.Template):
		return r.showTemplateForm()
	case key.Matches(msg, keys.Save):
		return r, attempt(r.ctx, routine.Save, "Routine saved", "Could not save routine")
	case key.Matches(msg, keys.Copy):
		return r, attempt(r.ctx, routine.CopyPreviousDay, "Copied yesterday's plan", "Could not copy previous day")
	}
	if !hasEntry {
		return r, nil
	}

	switch {
	case key.Matches(msg, keys.Toggle):
		return r, func() tea.Msg {
			if err := routine.ToggleComplete(r.ctx, slot.Key); err != nil {
				return errorStatus("Linked task not updated", err)
			}
			return nil
		}
	case key.Matches(msg, keys.Delete):
		routine.RemoveEntry(slot.Key)
	case key.Matches(msg, keys.Start):
		if t, ok := routine.Timer(); ok && t.Slot == slot.Key && t.Running {
			routine.PauseTimer()
			return r, nil
		}
		return r, inline(routine.StartTimer(slot.Key), "Could not start timer")
	case key.Matches(msg, keys.Stop):
		if t, ok := routine.Timer(); ok {
			routine.StopTimer()
			return r, status("Logged " + formatDuration(t.Current(r.now())))
		}
	case key.Matches(msg, keys.MoveUp):
		if r.cursor > 0 {
			routine.Move(slot.Key, slots[r.cursor-1].Key)
			r.cursor--
		}
	case key.Matches(msg, keys.MoveDown):
		if r.cursor < len(slots)-1 {
			routine.Move(slot.Key, slots[r.cursor+1].Key)
			r.cursor++
		}
	}
	return r, nil
}

func validMinutes(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 || n > 24*60 {
		return errors.New("enter minutes, 1 to 1440")
	}
	return nil
}

func (r routineModel) showEntryForm(slot derive.Slot) (routineModel, tea.Cmd) {
	*r.fields = routineFields{Category: derive.RoutineCategories[0].ID, Duration: "60"}
	if e, ok := r.routine.Entry(slot.Key); ok {
		r.fields.Title = e.Title
		r.fields.Category = derive.CategoryOf(e.Category).ID
		r.fields.Note = e.Note
		if e.Duration > 0 {
			r.fields.Duration = strconv.Itoa(e.Duration)
		}
	}
	r.formType = "entry"
	r.slot = slot.Key

	var cats []huh.Option[string]
	for _, c := range derive.RoutineCategories {
		cats = append(cats, huh.NewOption(c.Label, c.ID))
	}

	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Activity").Value(&r.fields.Title).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("activity is required")
				}
				return nil
			}),
			huh.NewSelect[string]().Title("Category").Options(cats...).Value(&r.fields.Category),
			huh.NewInput().Title("Duration (minutes)").Value(&r.fields.Duration).Validate(validMinutes),
			huh.NewInput().Title("Note").Value(&r.fields.Note),
		).Title(fmt.Sprintf("%s to %s", slot.Label, slot.EndLabel)),
	).WithShowHelp(true).WithShowErrors(true)

	r.formActive = true
	return r, r.form.Init()
}

func (r routineModel) showTemplateForm() (routineModel, tea.Cmd) {
	*r.fields = routineFields{Action: "save"}
	r.formType = "template"

	actions := []huh.Option[string]{huh.NewOption("Save this day as a template", "save")}
	var tpls []huh.Option[string]
	for _, t := range r.routine.Templates() {
		tpls = append(tpls, huh.NewOption(fmt.Sprintf("%s (%d entries)", t.Name, len(t.Entries)), t.ID))
	}
	if len(tpls) > 0 {
		actions = append(actions,
			huh.NewOption("Load a template", "apply"),
			huh.NewOption("Delete a template", "delete"),
		)
		r.fields.Template = r.routine.Templates()[0].ID
	}

	groups := []*huh.Group{
		huh.NewGroup(huh.NewSelect[string]().Title("Templates").Options(actions...).Value(&r.fields.Action)),
		huh.NewGroup(
			huh.NewInput().Title("Template name").Value(&r.fields.Name).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("name is required")
				}
				return nil
			}),
		).WithHideFunc(func() bool { return r.fields.Action != "save" }),
	}
	if len(tpls) > 0 {
		groups = append(groups, huh.NewGroup(
			huh.NewSelect[string]().Title("Template").Options(tpls...).Value(&r.fields.Template),
		).WithHideFunc(func() bool { return r.fields.Action == "save" }))
	}

	r.form = huh.NewForm(groups...).WithShowHelp(true).WithShowErrors(true)
	r.formActive = true
	return r, r.form.Init()
}

func (r routineModel) updateForm(msg tea.Msg) (routineModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		r.formActive = false
		r.form = nil
		return r, nil
	}

	form, cmd := r.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		r.form = f
	}
	if r.form.State != huh.StateCompleted {
		return r, cmd
	}

	r.formActive = false
	f := *r.fields
	routine := r.routine
	switch r.formType {
	case "entry":
		minutes, _ := strconv.Atoi(strings.TrimSpace(f.Duration))
		prev, _ := routine.Entry(r.slot)
		return r, inline(routine.SetEntry(r.slot, api.RoutineEntry{
			Title:        strings.TrimSpace(f.Title),
			Category:     f.Category,
			Duration:     minutes,
			Note:         strings.TrimSpace(f.Note),
			LinkedTaskID: prev.LinkedTaskID,
		}), "Could not set entry")

	case "template":
		switch f.Action {
		case "save":
			return r, attempt(r.ctx, func(ctx context.Context) error {
				_, err := routine.SaveAsTemplate(ctx, f.Name)
				return err
			}, "Template saved", "Could not save template")
		case "apply":
			return r, attempt(r.ctx, func(ctx context.Context) error {
				return routine.ApplyTemplate(ctx, f.Template)
			}, "Template loaded", "Could not load template")
		case "delete":
			return r, attempt(r.ctx, func(ctx context.Context) error {
				return routine.DeleteTemplate(ctx, f.Template)
			}, "Template deleted", "Could not delete template")
		}
	}
	return r, nil
}

func (r routineModel) view() string {
	w := r.width - 4
	if r.formActive && r.form != nil {
		title := "Routine entry"
		if r.formType == "template" {
			title = "Routine templates"
		}
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", r.form.View()))
	}

	left := r.renderSlots(w * 3 / 5)
	right := r.renderSummary(w - w*3/5 - 2)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (r routineModel) renderHeader() string {
	date := r.routine.Date()
	label := date
	if day, ok := derive.ParseDate(date, time.Local); ok {
		label = day.Format("Mon, Jan 2 2006")
	}
	header := titleStyle.Render("Routine") + "  " + highlightStyle.Render(label)
	if date == r.now().Format(derive.DateLayout) {
		header += accentStyle.Render("  today")
	}
	if r.routine.Dirty() {
		header += warningStyle.Render("  unsaved")
	} else if r.routine.HasRoutine(date) {
		header += successStyle.Render("  saved")
	}
	return header
}

func (r routineModel) renderSlots(w int) string {
	rows := []string{r.renderHeader(), ""}

	now := r.now()
	active := ""
	if r.routine.Date() == now.Format(derive.DateLayout) {
		active = derive.ActiveSlot(float64(now.Hour()) + float64(now.Minute())/60)
	}
	timer, timing := r.routine.Timer()

	slots := derive.TimeSlots()
	visible := max(r.height-12, 5)
	start := 0
	if r.cursor >= visible {
		start = r.cursor - visible + 1
	}
	end := min(start+visible, len(slots))

	for i := start; i < end; i++ {
		s := slots[i]
		selected := i == clamp(r.cursor, len(slots))
		label := fmt.Sprintf("%-9s", s.Label)
		if s.Key == active {
			label = accentStyle.Render(label)
		} else {
			label = mutedStyle.Render(label)
		}

		line := cursorPrefix(selected) + label + " "
		e, ok := r.routine.Entry(s.Key)
		if !ok {
			rows = append(rows, line+mutedStyle.Render("·"))
			continue
		}
		cat := derive.CategoryOf(e.Category)
		style := normalItemStyle
		if selected {
			style = selectedItemStyle
		}
		line += fmt.Sprintf("%s %s %s", checkbox(e.Completed), dot(cat.Color), style.Render(truncate(e.Title, 28)))
		if e.Duration > 0 {
			line += mutedStyle.Render(" " + derive.FormatMinutes(e.Duration))
		}
		if timing && timer.Slot == s.Key {
			clock := formatDuration(timer.Current(now))
			if timer.Running {
				line += "  " + clockStyle.Render(clock)
			} else {
				line += "  " + warningStyle.Render(clock+" paused")
			}
		} else if m := derive.TrackedMinutes(e); e.ElapsedSeconds > 0 && m > 0 {
			line += mutedStyle.Render("  tracked " + derive.FormatMinutes(m))
		}
		rows = append(rows, line)
	}

	rows = append(rows, "", hint("enter: edit", "space: done", "d: clear", "s: timer", "x: stop", "K/J: move", "w: save", "t: templates", "c: copy yesterday", "←/→: day"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (r routineModel) renderSummary(w int) string {
	s := r.routine.Summary()
	rows := []string{
		titleStyle.Render("Summary"),
		fmt.Sprintf("%s %d%%", progressBar(s.Completion, 16), s.Completion),
		fmt.Sprintf("%d of %d done", s.Completed, s.Total),
		"Planned  " + derive.FormatMinutes(s.Planned),
		"Focus    " + derive.FormatMinutes(s.Focus),
	}
	if r.streak.CurrentStreak > 0 {
		streak := fmt.Sprintf("Streak   %d days", r.streak.CurrentStreak)
		if r.streak.TodayCompleted {
			streak += " ✓"
		}
		rows = append(rows, accentStyle.Render(streak))
	}
	if len(s.Ring) > 0 {
		rows = append(rows, "")
		for _, slice := range s.Ring {
			rows = append(rows, fmt.Sprintf("%s %-9s %3d%%", dot(slice.Category.Color), slice.Category.Label, slice.Percent))
		}
		rows = append(rows, categoryChart(s.Ring, w, r.height/2))
	}
	if n := len(r.routine.Templates()); n > 0 {
		rows = append(rows, "", mutedStyle.Render(fmt.Sprintf("%d saved templates", n)))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/derive"
	"github.com/sadopc/focusflow/internal/tracker"
)

var goalPriorities = []string{"low", "medium", "high"}

// goalFields backs the goal forms. It lives behind a pointer so huh keeps
// writing into the same values after the model is copied.
type goalFields struct {
	Template    string
	Title       string
	Type        api.GoalType
	Priority    string
	Deadline    string
	Category    string
	Description string
	Notes       string
	Image       string
	Deps        []string
}

type goalsModel struct {
	ctx   context.Context
	goals *tracker.Goals
	now   func() time.Time

	width  int
	height int

	goalType api.GoalType
	archived bool
	cursor   int

	detail     bool
	stepCursor int
	addingStep bool
	stepInput  textinput.Model

	insights   *api.GoalAnalytics
	formActive bool
	form       *huh.Form
	formType   string // "new", "edit", "deps"
	editingID  string
	fields     *goalFields
}

func newGoalsModel(ctx context.Context, goals *tracker.Goals) goalsModel {
	in := textinput.New()
	in.Placeholder = "New step (prefix with ! for a milestone)"
	in.CharLimit = 200
	return goalsModel{
		ctx:       ctx,
		goals:     goals,
		now:       time.Now,
		goalType:  api.GoalShort,
		stepInput: in,
		fields:    &goalFields{},
	}
}

func (g *goalsModel) setSize(w, h int) {
	g.width = w
	g.height = h
	g.stepInput.Width = max(w-12, 10)
}

type goalsLoadedMsg struct{ err error }

type goalInsightsMsg struct {
	analytics api.GoalAnalytics
	err       error
}

func (g goalsModel) refresh() tea.Cmd {
	ctx, goals := g.ctx, g.goals
	return func() tea.Msg {
		return goalsLoadedMsg{err: goals.Load(ctx)}
	}
}

func (g goalsModel) visible() []api.Goal {
	return g.goals.List(g.goalType, g.archived)
}

func (g goalsModel) selected() (api.Goal, bool) {
	list := g.visible()
	if len(list) == 0 {
		return api.Goal{}, false
	}
	return list[clamp(g.cursor, len(list))], true
}

func (g goalsModel) capturing() bool { return g.formActive || g.addingStep }

func (g goalsModel) update(msg tea.Msg) (goalsModel, tea.Cmd) {
	if g.formActive && g.form != nil {
		return g.updateForm(msg)
	}

	switch msg := msg.(type) {
	case goalsLoadedMsg:
		if msg.err != nil {
			return g, failure("Could not load goals", msg.err)
		}
		g.cursor = clamp(g.cursor, len(g.visible()))
		return g, nil

	case goalInsightsMsg:
		if msg.err != nil {
			return g, failure("Could not load analytics", msg.err)
		}
		g.insights = &msg.analytics
		return g, nil

	case tea.KeyMsg:
		if g.addingStep {
			return g.updateStepInput(msg)
		}
		if g.detail {
			return g.updateDetail(msg)
		}
		return g.updateList(msg)
	}
	return g, nil
}

func nextStatus(s api.GoalStatus) api.GoalStatus {
	switch s {
	case api.StatusTodo:
		return api.StatusInProgress
	case api.StatusInProgress:
		return api.StatusDone
	}
	return api.StatusTodo
}

func (g goalsModel) updateList(msg tea.KeyMsg) (goalsModel, tea.Cmd) {
	list := g.visible()
	goal, ok := g.selected()
	goals := g.goals

	switch {
	case key.Matches(msg, keys.Up):
		if g.cursor > 0 {
			g.cursor--
		}
	case key.Matches(msg, keys.Down):
		if g.cursor < len(list)-1 {
			g.cursor++
		}
	case key.Matches(msg, keys.Switch):
		if g.goalType == api.GoalShort {
			g.goalType = api.GoalLong
		} else {
			g.goalType = api.GoalShort
		}
		g.cursor = 0
	case key.Matches(msg, keys.Archived):
		g.archived = !g.archived
		g.cursor = 0
	case key.Matches(msg, keys.New):
		return g.showNewForm()
	case key.Matches(msg, keys.Start):
		g.insights = nil
		ctx := g.ctx
		return g, func() tea.Msg {
			a, err := goals.Analytics(ctx)
			return goalInsightsMsg{analytics: a, err: err}
		}
	}
	if !ok {
		return g, nil
	}

	switch {
	case key.Matches(msg, keys.Enter):
		g.detail = true
		g.stepCursor = 0
	case key.Matches(msg, keys.Edit):
		return g.showEditForm(goal)
	case key.Matches(msg, keys.Toggle):
		next := nextStatus(goal.Status)
		return g, optimistic(func() error { return goals.SetStatus(goal.ID, next) }, "Could not update goal")
	case key.Matches(msg, keys.Pin):
		return g, optimistic(func() error { return goals.TogglePin(goal.ID) }, "Could not pin goal")
	case key.Matches(msg, keys.Archive):
		g.cursor = clamp(g.cursor, len(list)-1)
		return g, optimistic(func() error { return goals.ToggleArchive(goal.ID) }, "Could not archive goal")
	case key.Matches(msg, keys.Delete):
		g.cursor = clamp(g.cursor, len(list)-1)
		return g, optimistic(func() error { return goals.Delete(goal.ID) }, "Could not delete goal")
	case key.Matches(msg, keys.MoveUp):
		if g.cursor > 0 {
			from, typ, archived := g.cursor, g.goalType, g.archived
			g.cursor--
			return g, optimistic(func() error { return goals.Move(typ, archived, from, from-1) }, "Could not reorder")
		}
	case key.Matches(msg, keys.MoveDown):
		if g.cursor < len(list)-1 {
			from, typ, archived := g.cursor, g.goalType, g.archived
			g.cursor++
			return g, optimistic(func() error { return goals.Move(typ, archived, from, from+1) }, "Could not reorder")
		}
	}
	return g, nil
}

func (g goalsModel) updateDetail(msg tea.KeyMsg) (goalsModel, tea.Cmd) {
	goal, ok := g.selected()
	if !ok {
		g.detail = false
		return g, nil
	}
	goals := g.goals
	switch {
	case key.Matches(msg, keys.Back):
		g.detail = false
	case key.Matches(msg, keys.Up):
		if g.stepCursor > 0 {
			g.stepCursor--
		}
	case key.Matches(msg, keys.Down):
		if g.stepCursor < len(goal.Steps)-1 {
			g.stepCursor++
		}
	case key.Matches(msg, keys.New):
		g.addingStep = true
		g.stepInput.SetValue("")
		return g, g.stepInput.Focus()
	case key.Matches(msg, keys.Toggle):
		if len(goal.Steps) > 0 {
			idx := clamp(g.stepCursor, len(goal.Steps))
			return g, optimistic(func() error { return goals.ToggleStep(goal.ID, idx) }, "Could not update step")
		}
	case key.Matches(msg, keys.Delete):
		if len(goal.Steps) > 0 {
			step := goal.Steps[clamp(g.stepCursor, len(goal.Steps))]
			g.stepCursor = clamp(g.stepCursor, len(goal.Steps)-1)
			return g, optimistic(func() error { return goals.DeleteStep(goal.ID, step.ID) }, "Could not delete step")
		}
	case key.Matches(msg, keys.Edit):
		return g.showDepsForm(goal)
	}
	return g, nil
}

func (g goalsModel) updateStepInput(msg tea.KeyMsg) (goalsModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		g.addingStep = false
		g.stepInput.Blur()
		return g, nil
	case "enter":
		g.addingStep = false
		g.stepInput.Blur()
		goal, ok := g.selected()
		text := strings.TrimSpace(g.stepInput.Value())
		if !ok || text == "" {
			return g, nil
		}
		milestone := strings.HasPrefix(text, "!")
		text = strings.TrimSpace(strings.TrimPrefix(text, "!"))
		goals := g.goals
		return g, optimistic(func() error { return goals.AddStep(goal.ID, text, milestone) }, "Could not add step")
	}
	var cmd tea.Cmd
	g.stepInput, cmd = g.stepInput.Update(msg)
	return g, cmd
}

func validDeadline(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, ok := derive.ParseDate(strings.TrimSpace(s), time.Local); !ok {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

func priorityOptions() []huh.Option[string] {
	return huh.NewOptions(goalPriorities...)
}

func (g goalsModel) showNewForm() (goalsModel, tea.Cmd) {
	*g.fields = goalFields{Type: g.goalType, Priority: "medium"}
	g.formType = "new"

	templates := []huh.Option[string]{huh.NewOption("Blank goal", "")}
	for _, t := range derive.GoalTemplates {
		templates = append(templates, huh.NewOption(fmt.Sprintf("%s: %s", t.Name, t.Title), t.Name))
	}

	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Start from").Options(templates...).Value(&g.fields.Template),
			huh.NewSelect[api.GoalType]().Title("Type").
				Options(
					huh.NewOption("Short term", api.GoalShort),
					huh.NewOption("Long term", api.GoalLong),
				).Value(&g.fields.Type),
		),
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(&g.fields.Title).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("title is required")
				}
				return nil
			}),
			huh.NewSelect[string]().Title("Priority").Options(priorityOptions()...).Value(&g.fields.Priority),
			huh.NewInput().Title("Deadline (YYYY-MM-DD)").Value(&g.fields.Deadline).Validate(validDeadline),
			huh.NewInput().Title("Category").Value(&g.fields.Category),
		).WithHideFunc(func() bool { return g.fields.Template != "" }),
	).WithShowHelp(true).WithShowErrors(true)

	g.formActive = true
	return g, g.form.Init()
}

func (g goalsModel) showEditForm(goal api.Goal) (goalsModel, tea.Cmd) {
	*g.fields = goalFields{
		Title:       goal.Title,
		Priority:    goal.Priority,
		Deadline:    goal.Deadline,
		Category:    goal.Category,
		Description: goal.Description,
		Notes:       goal.Notes,
	}
	if g.fields.Priority == "" {
		g.fields.Priority = "medium"
	}
	g.formType = "edit"
	g.editingID = goal.ID

	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(&g.fields.Title),
			huh.NewText().Title("Description").Value(&g.fields.Description),
			huh.NewSelect[string]().Title("Priority").Options(priorityOptions()...).Value(&g.fields.Priority),
			huh.NewInput().Title("Deadline (YYYY-MM-DD)").Value(&g.fields.Deadline).Validate(validDeadline),
			huh.NewInput().Title("Category").Value(&g.fields.Category),
		),
		huh.NewGroup(
			huh.NewText().Title("Notes").Value(&g.fields.Notes),
			huh.NewInput().Title("Attach image (file path)").Value(&g.fields.Image),
		),
	).WithShowHelp(true).WithShowErrors(true)

	g.formActive = true
	return g, g.form.Init()
}

func (g goalsModel) showDepsForm(goal api.Goal) (goalsModel, tea.Cmd) {
	*g.fields = goalFields{Deps: append([]string(nil), goal.DependencyIDs...)}
	g.formType = "deps"
	g.editingID = goal.ID

	var options []huh.Option[string]
	for _, typ := range []api.GoalType{api.GoalShort, api.GoalLong} {
		for _, other := range g.goals.List(typ, false) {
			if other.ID != goal.ID {
				options = append(options, huh.NewOption(other.Title, other.ID))
			}
		}
	}
	if len(options) == 0 {
		return g, status("No other goals to depend on")
	}

	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().Title("Blocked until these are done").Options(options...).Value(&g.fields.Deps),
		),
	).WithShowHelp(true).WithShowErrors(true)

	g.formActive = true
	return g, g.form.Init()
}

func (g goalsModel) updateForm(msg tea.Msg) (goalsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		g.formActive = false
		g.form = nil
		return g, nil
	}

	form, cmd := g.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		g.form = f
	}
	if g.form.State != huh.StateCompleted {
		return g, cmd
	}

	g.formActive = false
	f := *g.fields
	goals, id := g.goals, g.editingID
	switch g.formType {
	case "new":
		return g, attempt(g.ctx, func(ctx context.Context) error {
			if f.Template != "" {
				_, err := goals.CreateFromTemplate(ctx, f.Template, f.Type)
				return err
			}
			_, err := goals.Create(ctx, api.Goal{
				Type:     f.Type,
				Title:    strings.TrimSpace(f.Title),
				Priority: f.Priority,
				Deadline: strings.TrimSpace(f.Deadline),
				Category: strings.TrimSpace(f.Category),
			})
			return err
		}, "Goal created", "Could not create goal")

	case "edit":
		err := goals.Edit(id, func(goal *api.Goal) {
			goal.Title = strings.TrimSpace(f.Title)
			goal.Description = f.Description
			goal.Priority = f.Priority
			goal.Deadline = strings.TrimSpace(f.Deadline)
			goal.Category = strings.TrimSpace(f.Category)
			goal.Notes = f.Notes
		})
		if err != nil {
			return g, failure("Could not edit goal", err)
		}
		if path := strings.TrimSpace(f.Image); path != "" {
			return g, attempt(g.ctx, func(ctx context.Context) error {
				file, err := os.Open(path)
				if err != nil {
					return err
				}
				defer file.Close()
				return goals.UploadImage(ctx, id, filepath.Base(path), file)
			}, "Image attached", "Could not upload image")
		}
		return g, nil

	case "deps":
		return g, optimistic(func() error { return goals.SetDependencies(id, f.Deps) }, "Could not save dependencies")
	}
	return g, nil
}

func (g goalsModel) view() string {
	w := g.width - 4
	if g.formActive && g.form != nil {
		title := map[string]string{"new": "New Goal", "edit": "Edit Goal", "deps": "Dependencies"}[g.formType]
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", g.form.View()))
	}
	if g.detail {
		return g.renderDetail(w)
	}
	return g.renderList(w)
}

func statusLabel(s api.GoalStatus) string {
	switch s {
	case api.StatusDone:
		return successStyle.Render("done ")
	case api.StatusInProgress:
		return highlightStyle.Render("doing")
	}
	return mutedStyle.Render("todo ")
}

func (g goalsModel) renderHeader() string {
	short := inactiveTabStyle.Render("Short term")
	long := inactiveTabStyle.Render("Long term")
	if g.goalType == api.GoalShort {
		short = activeTabStyle.Render("Short term")
	} else {
		long = activeTabStyle.Render("Long term")
	}
	label := ""
	if g.archived {
		label = warningStyle.Render("  archived")
	}
	c := g.goals.Stats()
	stats := mutedStyle.Render(fmt.Sprintf("  %d todo  %d doing  %d done  %d overdue", c.Todo, c.InProgress, c.Done, c.Overdue))
	return lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("Goals"), "  ", short, long, label, stats)
}

func (g goalsModel) renderList(w int) string {
	rows := []string{g.renderHeader(), ""}
	list := g.visible()
	if len(list) == 0 {
		rows = append(rows, mutedStyle.Render("No goals here. Press n to create one."))
	}
	cursor := clamp(g.cursor, len(list))
	now := g.now()
	for i, goal := range list {
		style := normalItemStyle
		if i == cursor {
			style = selectedItemStyle
		}
		pin := " "
		if goal.IsPinned {
			pin = accentStyle.Render("*")
		}
		line := fmt.Sprintf("%s%s %s %s %s", cursorPrefix(i == cursor), pin, dot(goal.Color), statusLabel(goal.Status), style.Render(truncate(goal.Title, 40)))
		if done, total, _ := derive.StepProgress(goal); total > 0 {
			line += mutedStyle.Render(fmt.Sprintf("  %d/%d", done, total))
		}
		if ds := derive.Deadline(goal.Deadline, now); ds.Band != derive.BandNone && goal.Status != api.StatusDone {
			line += "  " + bandStyle(ds.Band).Render(ds.Label())
		}
		if len(g.goals.Blocking(goal.ID)) > 0 {
			line += "  " + warningStyle.Render("blocked")
		}
		if goal.StreakCount > 0 {
			line += "  " + accentStyle.Render(fmt.Sprintf("%d streak", goal.StreakCount))
		}
		if g.goals.Dirty(goal.ID) {
			line += mutedStyle.Render("  saving…")
		}
		rows = append(rows, line)
	}
	if g.insights != nil {
		rows = append(rows, "", g.renderInsights())
	}
	rows = append(rows, "", hint("n: new", "e: edit", "space: status", "p: pin", "a: archive", "d: delete", "K/J: move", "v: short/long", "A: archived", "s: stats", "enter: steps"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (g goalsModel) renderInsights() string {
	a := g.insights
	rows := []string{titleStyle.Render("Insights") + mutedStyle.Render(fmt.Sprintf("  %d goals, %d todo, %d in progress, %d done", a.Total, a.Status.Todo, a.Status.InProgress, a.Status.Done))}
	var weeks []string
	for _, wk := range a.WeeklyProgress {
		weeks = append(weeks, fmt.Sprintf("%s %d", wk.Name, wk.Completed))
	}
	if len(weeks) > 0 {
		rows = append(rows, mutedStyle.Render("  completed per week: "+strings.Join(weeks, ", ")))
	}
	var cats []string
	for _, c := range a.Categories {
		cats = append(cats, fmt.Sprintf("%s %s", c.Name, c.Value.String()))
	}
	if len(cats) > 0 {
		rows = append(rows, mutedStyle.Render("  categories: "+strings.Join(cats, ", ")))
	}
	return strings.Join(rows, "\n")
}

func (g goalsModel) renderDetail(w int) string {
	goal, _ := g.selected()
	done, total, pct := derive.StepProgress(goal)
	rows := []string{
		fmt.Sprintf("%s %s  %s", dot(goal.Color), titleStyle.Render(goal.Title), statusLabel(goal.Status)),
	}
	if goal.Description != "" {
		rows = append(rows, mutedStyle.Render(goal.Description))
	}
	if ds := derive.Deadline(goal.Deadline, g.now()); ds.Band != derive.BandNone {
		rows = append(rows, bandStyle(ds.Band).Render(goal.Deadline+"  "+ds.Label()))
	}
	if goal.ImageURL != "" {
		rows = append(rows, mutedStyle.Render("image: "+goal.ImageURL))
	}
	rows = append(rows, fmt.Sprintf("%s %d/%d", progressBar(pct, 24), done, total), "")

	if blocking := g.goals.Blocking(goal.ID); len(blocking) > 0 {
		var names []string
		for _, b := range blocking {
			names = append(names, b.Title)
		}
		rows = append(rows, warningStyle.Render("Blocked by: "+strings.Join(names, ", ")), "")
	}

	if len(goal.Steps) == 0 {
		rows = append(rows, mutedStyle.Render("No steps. Press n to add one."))
	}
	cursor := clamp(g.stepCursor, len(goal.Steps))
	for i, s := range goal.Steps {
		style := normalItemStyle
		if i == cursor && !g.addingStep {
			style = selectedItemStyle
		}
		text := s.Text
		if s.IsMilestone {
			text = "◆ " + text
		}
		rows = append(rows, fmt.Sprintf("%s%s %s", cursorPrefix(i == cursor && !g.addingStep), checkbox(s.Done), style.Render(text)))
	}
	if g.addingStep {
		rows = append(rows, "", g.stepInput.View())
	}
	if goal.Notes != "" {
		rows = append(rows, "", titleStyle.Render("Notes"), goal.Notes)
	}
	rows = append(rows, "", hint("n: add step", "space: check", "d: delete step", "e: dependencies", "esc: back"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

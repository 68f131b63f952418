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
	"github.com/shopspring/decimal"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/derive"
	"github.com/sadopc/focusflow/internal/tracker"
)

type gymSection int

const (
	sectionCounters gymSection = iota
	sectionExercises
	sectionMeals
)

var gymCounters = []tracker.Counter{tracker.Water, tracker.Pushups, tracker.Pullups, tracker.Squats}

var mealTypes = []string{"breakfast", "lunch", "dinner", "snack"}

type gymFields struct {
	Weight      string
	Notes       string
	Name        string
	MuscleGroup string
	Sets        string
	Reps        string
	Load        string
	MealType    string
	Calories    string
	Protein     string
	Carbs       string
	Fat         string
	Targets     [7]string
}

type gymModel struct {
	ctx context.Context
	gym *tracker.Gym
	now func() time.Time

	width  int
	height int

	date    string
	section gymSection
	cursor  int

	span      string // "", "week", "month"
	analytics []api.GymDayStats
	history   []api.GymDayStats

	formActive bool
	form       *huh.Form
	formType   string // "day", "exercise", "meal", "goal"
	fields     *gymFields
}

func newGymModel(ctx context.Context, gym *tracker.Gym) gymModel {
	return gymModel{
		ctx:    ctx,
		gym:    gym,
		now:    time.Now,
		date:   time.Now().Format(derive.DateLayout),
		fields: &gymFields{},
	}
}

func (g *gymModel) setSize(w, h int) {
	g.width = w
	g.height = h
}

type gymLoadedMsg struct {
	date string
	err  error
}

type gymStatsMsg struct {
	span  string
	stats []api.GymDayStats
	err   error
}

type gymHistoryMsg struct {
	stats []api.GymDayStats
	err   error
}

func (g gymModel) refresh() tea.Cmd {
	return tea.Batch(g.load(g.date), g.loadHistory(g.date), g.loadGoal())
}

func (g gymModel) load(date string) tea.Cmd {
	ctx, gym := g.ctx, g.gym
	return func() tea.Msg {
		return gymLoadedMsg{date: date, err: gym.Load(ctx, date)}
	}
}

func (g gymModel) loadGoal() tea.Cmd {
	ctx, gym := g.ctx, g.gym
	return func() tea.Msg {
		if err := gym.LoadGoal(ctx); err != nil {
			return errorStatus("Could not load gym goals", err)
		}
		return nil
	}
}

func (g gymModel) loadHistory(date string) tea.Cmd {
	day, ok := derive.ParseDate(date, time.Local)
	if !ok {
		return nil
	}
	ctx, gym := g.ctx, g.gym
	return func() tea.Msg {
		stats, err := gym.History(ctx, day.Month(), day.Year())
		return gymHistoryMsg{stats: stats, err: err}
	}
}

func (g gymModel) loadAnalytics(span string) tea.Cmd {
	ctx, gym := g.ctx, g.gym
	return func() tea.Msg {
		stats, err := gym.Analytics(ctx, span)
		return gymStatsMsg{span: span, stats: stats, err: err}
	}
}

func (g gymModel) day() api.GymDay {
	d, _ := g.gym.Day(g.date)
	return d
}

func (g gymModel) rows() int {
	switch g.section {
	case sectionExercises:
		return len(g.day().Exercises)
	case sectionMeals:
		return len(g.day().Meals)
	}
	return len(gymCounters)
}

func (g gymModel) update(msg tea.Msg) (gymModel, tea.Cmd) {
	if g.formActive && g.form != nil {
		return g.updateForm(msg)
	}

	switch msg := msg.(type) {
	case gymLoadedMsg:
		if msg.err != nil {
			return g, failure("Could not load gym day", msg.err)
		}
		g.date = msg.date
		g.cursor = clamp(g.cursor, g.rows())
		return g, nil

	case gymStatsMsg:
		if msg.err != nil {
			return g, failure("Could not load gym analytics", msg.err)
		}
		if msg.span == g.span {
			g.analytics = msg.stats
		}
		return g, nil

	case gymHistoryMsg:
		if msg.err == nil {
			g.history = msg.stats
		}
		return g, nil

	case tea.KeyMsg:
		return g.updateKeys(msg)
	}
	return g, nil
}

func (g gymModel) updateKeys(msg tea.KeyMsg) (gymModel, tea.Cmd) {
	n := g.rows()
	gym, date := g.gym, g.date
	switch {
	case key.Matches(msg, keys.Up):
		if g.cursor > 0 {
			g.cursor--
		}
		return g, nil
	case key.Matches(msg, keys.Down):
		if g.cursor < n-1 {
			g.cursor++
		}
		return g, nil
	case key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
		day, ok := derive.ParseDate(g.date, time.Local)
		if !ok {
			day = g.now()
		}
		delta := 1
		if key.Matches(msg, keys.Left) {
			delta = -1
		}
		next := day.AddDate(0, 0, delta)
		cmds := []tea.Cmd{g.load(next.Format(derive.DateLayout))}
		if next.Month() != day.Month() {
			cmds = append(cmds, g.loadHistory(next.Format(derive.DateLayout)))
		}
		return g, tea.Batch(cmds...)
	case key.Matches(msg, keys.Switch):
		g.section = (g.section + 1) % 3
		g.cursor = 0
		return g, nil
	case key.Matches(msg, keys.Start):
		switch g.span {
		case "":
			g.span = "week"
		case "week":
			g.span = "month"
		default:
			g.span = ""
			g.analytics = nil
			return g, nil
		}
		g.analytics = nil
		return g, g.loadAnalytics(g.span)
	case key.Matches(msg, keys.Edit):
		return g.showDayForm()
	case key.Matches(msg, keys.New):
		switch g.section {
		case sectionExercises:
			return g.showExerciseForm()
		case sectionMeals:
			return g.showMealForm()
		}
		return g.showGoalForm()
	}

	switch g.section {
	case sectionCounters:
		c := gymCounters[clamp(g.cursor, len(gymCounters))]
		switch {
		case key.Matches(msg, keys.Plus), key.Matches(msg, keys.Toggle):
			return g, inline(gym.Increment(date, c, 1), "Could not update "+c.String())
		case key.Matches(msg, keys.Minus):
			return g, inline(gym.Increment(date, c, -1), "Could not update "+c.String())
		}

	case sectionExercises:
		exs := g.day().Exercises
		if len(exs) > 0 && key.Matches(msg, keys.Delete) {
			id := exs[clamp(g.cursor, len(exs))].ID
			g.cursor = clamp(g.cursor, len(exs)-1)
			return g, attempt(g.ctx, func(ctx context.Context) error {
				return gym.DeleteExercise(ctx, date, id)
			}, "Exercise removed", "Could not remove exercise")
		}

	case sectionMeals:
		meals := g.day().Meals
		if len(meals) > 0 && key.Matches(msg, keys.Delete) {
			id := meals[clamp(g.cursor, len(meals))].ID
			g.cursor = clamp(g.cursor, len(meals)-1)
			return g, attempt(g.ctx, func(ctx context.Context) error {
				return gym.DeleteMeal(ctx, date, id)
			}, "Meal removed", "Could not remove meal")
		}
	}
	return g, nil
}

func validCount(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err != nil || n < 0 {
		return errors.New("enter a whole number")
	}
	return nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func (g gymModel) showDayForm() (gymModel, tea.Cmd) {
	day := g.day()
	*g.fields = gymFields{Notes: day.Notes}
	if day.Weight.Valid {
		g.fields.Weight = day.Weight.Decimal.String()
	}
	g.formType = "day"
	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Body weight (kg)").Value(&g.fields.Weight).Validate(validOptionalAmount),
			huh.NewText().Title("Notes").Value(&g.fields.Notes),
		),
	).WithShowHelp(true).WithShowErrors(true)
	g.formActive = true
	return g, g.form.Init()
}

func (g gymModel) showExerciseForm() (gymModel, tea.Cmd) {
	*g.fields = gymFields{Sets: "3", Reps: "10"}
	g.formType = "exercise"
	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Exercise").Value(&g.fields.Name).Validate(required("name")),
			huh.NewInput().Title("Muscle group").Value(&g.fields.MuscleGroup),
			huh.NewInput().Title("Sets").Value(&g.fields.Sets).Validate(validCount),
			huh.NewInput().Title("Reps").Value(&g.fields.Reps).Validate(validCount),
			huh.NewInput().Title("Weight (kg, blank for bodyweight)").Value(&g.fields.Load).Validate(validOptionalAmount),
		),
	).WithShowHelp(true).WithShowErrors(true)
	g.formActive = true
	return g, g.form.Init()
}

func (g gymModel) showMealForm() (gymModel, tea.Cmd) {
	*g.fields = gymFields{MealType: mealTypes[0]}
	g.formType = "meal"
	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Meal").Value(&g.fields.Name).Validate(required("name")),
			huh.NewSelect[string]().Title("Type").Options(huh.NewOptions(mealTypes...)...).Value(&g.fields.MealType),
			huh.NewInput().Title("Calories").Value(&g.fields.Calories).Validate(validCount),
			huh.NewInput().Title("Protein (g)").Value(&g.fields.Protein).Validate(validCount),
			huh.NewInput().Title("Carbs (g)").Value(&g.fields.Carbs).Validate(validCount),
			huh.NewInput().Title("Fat (g)").Value(&g.fields.Fat).Validate(validCount),
		),
	).WithShowHelp(true).WithShowErrors(true)
	g.formActive = true
	return g, g.form.Init()
}

var goalTargetLabels = [7]string{"Water glasses", "Protein (g)", "Calories", "Push-ups", "Pull-ups", "Squats", "Workouts per week"}

func goalTargets(goal *api.GymGoal) [7]*int {
	return [7]*int{
		&goal.TargetWater, &goal.TargetProtein, &goal.TargetCalories,
		&goal.TargetPushups, &goal.TargetPullups, &goal.TargetSquads, &goal.TargetWorkoutsPerWeek,
	}
}

func (g gymModel) showGoalForm() (gymModel, tea.Cmd) {
	goal := g.gym.Goal()
	*g.fields = gymFields{}
	var inputs []huh.Field
	for i, p := range goalTargets(&goal) {
		g.fields.Targets[i] = strconv.Itoa(*p)
		inputs = append(inputs, huh.NewInput().Title(goalTargetLabels[i]).Value(&g.fields.Targets[i]).Validate(validCount))
	}
	g.formType = "goal"
	g.form = huh.NewForm(huh.NewGroup(inputs...).Title("Daily targets")).WithShowHelp(true).WithShowErrors(true)
	g.formActive = true
	return g, g.form.Init()
}

func (g gymModel) updateForm(msg tea.Msg) (gymModel, tea.Cmd) {
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
	gym, date := g.gym, g.date
	switch g.formType {
	case "day":
		var cmds []tea.Cmd
		if w := strings.TrimSpace(f.Weight); w != "" {
			cmds = append(cmds, inline(gym.SetWeight(date, parseAmount(w)), "Could not set weight"))
		}
		if f.Notes != g.day().Notes {
			cmds = append(cmds, inline(gym.SetNotes(date, f.Notes), "Could not save notes"))
		}
		return g, tea.Batch(cmds...)

	case "exercise":
		e := api.Exercise{
			Name:        strings.TrimSpace(f.Name),
			MuscleGroup: strings.TrimSpace(f.MuscleGroup),
			Sets:        atoi(f.Sets),
			Reps:        atoi(f.Reps),
			Weight:      parseAmount(f.Load),
		}
		return g, attempt(g.ctx, func(ctx context.Context) error {
			return gym.AddExercise(ctx, date, e)
		}, "Exercise logged", "Could not log exercise")

	case "meal":
		meal := api.Meal{
			Name:     strings.TrimSpace(f.Name),
			MealType: f.MealType,
			Calories: atoi(f.Calories),
			Protein:  atoi(f.Protein),
			Carbs:    atoi(f.Carbs),
			Fat:      atoi(f.Fat),
		}
		return g, attempt(g.ctx, func(ctx context.Context) error {
			return gym.AddMeal(ctx, date, meal)
		}, "Meal logged", "Could not log meal")

	case "goal":
		var goal api.GymGoal
		for i, p := range goalTargets(&goal) {
			*p = atoi(f.Targets[i])
		}
		return g, attempt(g.ctx, func(ctx context.Context) error {
			return gym.SaveGoal(ctx, goal)
		}, "Targets saved", "Could not save targets")
	}
	return g, nil
}

func (g gymModel) view() string {
	w := g.width - 4
	if g.formActive && g.form != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Gym"), "", g.form.View()))
	}
	left := lipgloss.JoinVertical(lipgloss.Left, g.renderDay(w/2), g.renderLists(w/2))
	return lipgloss.JoinHorizontal(lipgloss.Top, left, g.renderStats(w-w/2-2))
}

func (g gymModel) renderDay(w int) string {
	day := g.day()
	goal := g.gym.Goal()
	s := g.gym.Summary(g.date)

	label := g.date
	if t, ok := derive.ParseDate(g.date, time.Local); ok {
		label = t.Format("Mon, Jan 2")
	}
	rows := []string{titleStyle.Render("Gym") + "  " + highlightStyle.Render("‹ "+label+" ›"), ""}

	values := []int{day.WaterGlasses, day.Pushups, day.Pullups, day.Squads}
	targets := []int{goal.TargetWater, goal.TargetPushups, goal.TargetPullups, goal.TargetSquads}
	pcts := []int{s.WaterPct, s.PushupsPct, s.PullupsPct, s.SquatsPct}
	for i, c := range gymCounters {
		selected := g.section == sectionCounters && i == clamp(g.cursor, len(gymCounters))
		line := fmt.Sprintf("%s%-9s %4d / %-4d %s", cursorPrefix(selected), c.String(), values[i], targets[i], progressBar(pcts[i], 12))
		if selected {
			line = selectedItemStyle.Render(line)
		}
		rows = append(rows, line)
	}

	weight := mutedStyle.Render("not logged")
	if day.Weight.Valid {
		weight = day.Weight.Decimal.StringFixed(1) + " kg"
	}
	rows = append(rows, "", "Weight    "+weight)
	if day.Notes != "" {
		rows = append(rows, "Notes     "+truncate(day.Notes, max(w-14, 10)))
	}
	if g.section == sectionCounters {
		rows = append(rows, "", hint("+/-: count", "e: weight & notes", "n: targets", "v: section", "←/→: day", "s: analytics"))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (g gymModel) renderLists(w int) string {
	day := g.day()
	s := g.gym.Summary(g.date)
	goal := g.gym.Goal()

	exTitle := titleStyle.Render("Exercises")
	if !s.Volume.IsZero() {
		exTitle += mutedStyle.Render("  volume " + s.Volume.StringFixed(0) + " kg")
	}
	rows := []string{exTitle}
	if len(day.Exercises) == 0 {
		rows = append(rows, mutedStyle.Render("  none logged"))
	}
	for i, e := range day.Exercises {
		selected := g.section == sectionExercises && i == clamp(g.cursor, len(day.Exercises))
		line := fmt.Sprintf("%s%s  %dx%d", cursorPrefix(selected), truncate(e.Name, 20), e.Sets, e.Reps)
		if e.Weight.IsPositive() {
			line += " @ " + e.Weight.String() + "kg"
		}
		if e.MuscleGroup != "" {
			line += mutedStyle.Render("  " + e.MuscleGroup)
		}
		rows = append(rows, line)
	}

	rows = append(rows, "", titleStyle.Render("Meals")+mutedStyle.Render(fmt.Sprintf("  %d kcal  P%d C%d F%d",
		s.Macros.Calories, s.Macros.Protein, s.Macros.Carbs, s.Macros.Fat)))
	if goal.TargetCalories > 0 || goal.TargetProtein > 0 {
		rows = append(rows,
			fmt.Sprintf("  calories %s %d%%", progressBar(s.CaloriesPct, 12), s.CaloriesPct),
			fmt.Sprintf("  protein  %s %d%%", progressBar(s.ProteinPct, 12), s.ProteinPct),
		)
	}
	if len(day.Meals) == 0 {
		rows = append(rows, mutedStyle.Render("  none logged"))
	}
	for i, m := range day.Meals {
		selected := g.section == sectionMeals && i == clamp(g.cursor, len(day.Meals))
		rows = append(rows, fmt.Sprintf("%s%-10s %s  %d kcal", cursorPrefix(selected), m.MealType, truncate(m.Name, 20), m.Calories))
	}
	if g.section != sectionCounters {
		rows = append(rows, "", hint("n: add", "d: delete", "v: section", "←/→: day"))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (g gymModel) renderStats(w int) string {
	goal := g.gym.Goal()
	rows := []string{titleStyle.Render("This month")}
	workouts := derive.WorkoutDays(g.history)
	line := fmt.Sprintf("%d workout days", workouts)
	if goal.TargetWorkoutsPerWeek > 0 {
		line += mutedStyle.Render(fmt.Sprintf("  target %d per week", goal.TargetWorkoutsPerWeek))
	}
	rows = append(rows, line)

	if g.span != "" {
		rows = append(rows, "", titleStyle.Render("Last "+g.span))
		if g.analytics == nil {
			rows = append(rows, mutedStyle.Render("Loading..."))
		} else {
			var first, last decimal.Decimal
			for _, s := range g.analytics {
				if s.Weight.IsPositive() {
					if first.IsZero() {
						first = s.Weight
					}
					last = s.Weight
				}
			}
			rows = append(rows, fmt.Sprintf("%d workouts", derive.WorkoutDays(g.analytics)))
			if !first.IsZero() {
				rows = append(rows, fmt.Sprintf("weight %s → %s kg", first.StringFixed(1), last.StringFixed(1)))
			}
			rows = append(rows, gymChart(g.analytics, w, g.height/2))
		}
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

package tracker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/derive"
	"github.com/sadopc/focusflow/internal/reconcile"
)

// Counter is one of the tap-to-increment daily gym values.
type Counter int

const (
	Water Counter = iota
	Pushups
	Pullups
	Squats
)

func (c Counter) String() string {
	switch c {
	case Water:
		return "water"
	case Pushups:
		return "push-ups"
	case Pullups:
		return "pull-ups"
	case Squats:
		return "squats"
	}
	return fmt.Sprintf("Counter(%d)", int(c))
}

func (c Counter) field(d *api.GymDay) *int {
	switch c {
	case Water:
		return &d.WaterGlasses
	case Pushups:
		return &d.Pushups
	case Pullups:
		return &d.Pullups
	case Squats:
		return &d.Squads
	}
	return nil
}

// Gym tracks one day at a time. Day edits are keyed by date so a burst of
// counter taps becomes one save.
type Gym struct {
	deps  Deps
	coord *reconcile.Coordinator[api.GymDay]

	mu   sync.Mutex
	goal api.GymGoal
}

func NewGym(d Deps) *Gym {
	d = d.withDefaults()
	return &Gym{
		deps:  d,
		coord: reconcile.New(func(g api.GymDay) string { return g.Date }, options(d, "gym", api.GymDay.Clone)),
	}
}

// Load switches to date. Pending edits to the previous day are written first.
func (g *Gym) Load(ctx context.Context, date string) error {
	day, err := g.deps.API.GymDay(ctx, date)
	if err != nil {
		return fmt.Errorf("load gym day %s: %w", date, err)
	}
	g.coord.Flush()
	g.coord.Replace([]api.GymDay{day})
	return nil
}

func (g *Gym) LoadGoal(ctx context.Context) error {
	goal, err := g.deps.API.GymGoal(ctx)
	if err != nil {
		return fmt.Errorf("load gym goal: %w", err)
	}
	g.mu.Lock()
	g.goal = goal
	g.mu.Unlock()
	return nil
}

func (g *Gym) Goal() api.GymGoal {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.goal
}

func (g *Gym) SaveGoal(ctx context.Context, goal api.GymGoal) error {
	if err := g.deps.API.SaveGymGoal(ctx, goal); err != nil {
		return fmt.Errorf("save gym goal: %w", err)
	}
	g.mu.Lock()
	g.goal = goal
	g.mu.Unlock()
	return nil
}

func (g *Gym) Day(date string) (api.GymDay, bool) { return g.coord.Get(date) }

func (g *Gym) persist(ctx context.Context, d api.GymDay) (api.GymDay, error) {
	return api.GymDay{}, g.deps.API.SaveGymDay(ctx, api.DayFields(d))
}

// Increment adds delta to a counter, never going below zero.
func (g *Gym) Increment(date string, c Counter, delta int) error {
	return g.coord.Update(date, func(d *api.GymDay) {
		if f := c.field(d); f != nil {
			*f = max(0, *f+delta)
		}
	}, g.persist)
}

func (g *Gym) SetWeight(date string, kg decimal.Decimal) error {
	if kg.IsNegative() {
		return fmt.Errorf("%w: weight is negative", ErrInvalidInput)
	}
	return g.coord.Update(date, func(d *api.GymDay) {
		d.Weight = decimal.NewNullDecimal(kg)
	}, g.persist)
}

func (g *Gym) SetNotes(date, notes string) error {
	return g.coord.Update(date, func(d *api.GymDay) { d.Notes = notes }, g.persist)
}

func (g *Gym) AddExercise(ctx context.Context, date string, e api.Exercise) error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: exercise name is required", ErrInvalidInput)
	}
	created, err := g.deps.API.AddExercise(ctx, date, e)
	if err != nil {
		return fmt.Errorf("add exercise: %w", err)
	}
	if created.ID == "" {
		created = e
	}
	return g.coord.Confirm(date, func(d *api.GymDay) { d.Exercises = append(d.Exercises, created) })
}

func (g *Gym) DeleteExercise(ctx context.Context, date, id string) error {
	if err := g.deps.API.DeleteExercise(ctx, id); err != nil {
		return fmt.Errorf("delete exercise: %w", err)
	}
	return g.coord.Confirm(date, func(d *api.GymDay) {
		out := d.Exercises[:0]
		for _, e := range d.Exercises {
			if e.ID != id {
				out = append(out, e)
			}
		}
		d.Exercises = out
	})
}

func (g *Gym) AddMeal(ctx context.Context, date string, m api.Meal) error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: meal name is required", ErrInvalidInput)
	}
	created, err := g.deps.API.AddMeal(ctx, date, m)
	if err != nil {
		return fmt.Errorf("add meal: %w", err)
	}
	if created.ID == "" {
		created = m
	}
	return g.coord.Confirm(date, func(d *api.GymDay) { d.Meals = append(d.Meals, created) })
}

func (g *Gym) DeleteMeal(ctx context.Context, date, id string) error {
	if err := g.deps.API.DeleteMeal(ctx, id); err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	return g.coord.Confirm(date, func(d *api.GymDay) {
		out := d.Meals[:0]
		for _, m := range d.Meals {
			if m.ID != id {
				out = append(out, m)
			}
		}
		d.Meals = out
	})
}

// GymSummary compares a day against the goals.
type GymSummary struct {
	Macros      derive.Macros
	Volume      decimal.Decimal
	WaterPct    int
	ProteinPct  int
	CaloriesPct int
	PushupsPct  int
	PullupsPct  int
	SquatsPct   int
}

func (g *Gym) Summary(date string) GymSummary {
	day, _ := g.coord.Get(date)
	goal := g.Goal()
	macros := derive.MealTotals(day.Meals)
	return GymSummary{
		Macros:      macros,
		Volume:      derive.ExerciseVolume(day.Exercises),
		WaterPct:    derive.GoalPercent(day.WaterGlasses, goal.TargetWater),
		ProteinPct:  derive.GoalPercent(macros.Protein, goal.TargetProtein),
		CaloriesPct: derive.GoalPercent(macros.Calories, goal.TargetCalories),
		PushupsPct:  derive.GoalPercent(day.Pushups, goal.TargetPushups),
		PullupsPct:  derive.GoalPercent(day.Pullups, goal.TargetPullups),
		SquatsPct:   derive.GoalPercent(day.Squads, goal.TargetSquads),
	}
}

// Analytics returns per-day stats for "week" or "month".
func (g *Gym) Analytics(ctx context.Context, span string) ([]api.GymDayStats, error) {
	if span != "week" && span != "month" {
		return nil, fmt.Errorf("%w: span %q", ErrInvalidInput, span)
	}
	return g.deps.API.GymAnalytics(ctx, span)
}

func (g *Gym) History(ctx context.Context, month time.Month, year int) ([]api.GymDayStats, error) {
	return g.deps.API.GymHistory(ctx, int(month), year)
}

func (g *Gym) Flush() { g.coord.Flush() }
func (g *Gym) Close() { g.coord.Close() }

func (g *Gym) Drain(ctx context.Context) error { return g.coord.Drain(ctx) }

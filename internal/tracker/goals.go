package tracker

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/derive"
	"github.com/sadopc/focusflow/internal/reconcile"
)

// tempPrefix marks a step that exists locally but has no server id yet.
const tempPrefix = "tmp-"

type Goals struct {
	deps  Deps
	coord *reconcile.Coordinator[api.Goal]
}

func NewGoals(d Deps) *Goals {
	d = d.withDefaults()
	opts := options(d, "goal", api.Goal.Clone)
	opts.Renumber = func(g *api.Goal, i int) { g.Order = i }
	return &Goals{
		deps:  d,
		coord: reconcile.New(func(g api.Goal) string { return g.ID }, opts),
	}
}

func (g *Goals) Load(ctx context.Context) error {
	list, err := g.deps.API.ListGoals(ctx)
	if err != nil {
		return fmt.Errorf("load goals: %w", err)
	}
	all := make([]api.Goal, 0, len(list.Short)+len(list.Long))
	all = append(all, list.Short...)
	all = append(all, list.Long...)
	g.coord.Replace(all)
	return nil
}

// List returns the visible goals of one type in display order.
func (g *Goals) List(typ api.GoalType, archived bool) []api.Goal {
	return derive.SortGoals(derive.FilterGoals(g.coord.Items(), typ, archived))
}

func (g *Goals) Get(id string) (api.Goal, bool) {
	return g.coord.Get(id)
}

func (g *Goals) Stats() derive.GoalCounts {
	return derive.GoalStats(g.coord.Items(), g.deps.Now())
}

// Blocking lists the unfinished dependencies of id.
func (g *Goals) Blocking(id string) []api.Goal {
	goal, ok := g.coord.Get(id)
	if !ok {
		return nil
	}
	return derive.BlockingGoals(goal, g.coord.Items())
}

func (g *Goals) Create(ctx context.Context, goal api.Goal) (api.Goal, error) {
	if strings.TrimSpace(goal.Title) == "" {
		return api.Goal{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if goal.Status == "" {
		goal.Status = api.StatusTodo
	}
	if goal.Type == "" {
		goal.Type = api.GoalShort
	}
	if goal.DependencyIDs == nil {
		goal.DependencyIDs = []string{}
	}
	goal.Order = len(derive.FilterGoals(g.coord.Items(), goal.Type, false))
	created, err := g.deps.API.CreateGoal(ctx, goal)
	if err != nil {
		return api.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	g.coord.Insert(created)
	return created, nil
}

// CreateFromTemplate creates the named template goal as typ.
func (g *Goals) CreateFromTemplate(ctx context.Context, name string, typ api.GoalType) (api.Goal, error) {
	goal, ok := derive.FromTemplate(name)
	if !ok {
		return api.Goal{}, fmt.Errorf("%w: unknown template %q", ErrInvalidInput, name)
	}
	if typ != "" {
		goal.Type = typ
	}
	return g.Create(ctx, goal)
}

func (g *Goals) persist(ctx context.Context, goal api.Goal) (api.Goal, error) {
	return g.deps.API.UpdateGoal(ctx, goal)
}

// Edit changes free-text fields; rapid edits are coalesced into one write.
func (g *Goals) Edit(id string, mutate func(*api.Goal)) error {
	return g.coord.Update(id, mutate, g.persist)
}

// SetStatus moves a goal between columns. Moving a blocked goal to done is
// refused.
func (g *Goals) SetStatus(id string, status api.GoalStatus) error {
	if status == api.StatusDone && len(g.Blocking(id)) > 0 {
		return ErrGoalBlocked
	}
	return g.coord.Apply(id, func(goal *api.Goal) { goal.Status = status }, g.persist)
}

func (g *Goals) TogglePin(id string) error {
	return g.coord.Apply(id, func(goal *api.Goal) { goal.IsPinned = !goal.IsPinned }, g.persist)
}

func (g *Goals) ToggleArchive(id string) error {
	return g.coord.Apply(id, func(goal *api.Goal) { goal.IsArchived = !goal.IsArchived }, g.persist)
}

// SetDependencies replaces the ids id depends on. A goal cannot depend on
// itself.
func (g *Goals) SetDependencies(id string, deps []string) error {
	clean := make([]string, 0, len(deps))
	for _, d := range deps {
		if d != id && d != "" {
			clean = append(clean, d)
		}
	}
	return g.coord.Apply(id, func(goal *api.Goal) { goal.DependencyIDs = clean }, g.persist)
}

// ToggleStep flips step idx. Steps of a blocked goal cannot be checked.
// The step is matched by id when the write lands, so a step deleted in the
// meantime is left alone.
func (g *Goals) ToggleStep(id string, idx int) error {
	goal, ok := g.coord.Get(id)
	if !ok {
		return fmt.Errorf("goal %s: %w", id, reconcile.ErrNotFound)
	}
	if idx < 0 || idx >= len(goal.Steps) {
		return fmt.Errorf("%w: step %d", ErrInvalidInput, idx)
	}
	if !goal.Steps[idx].Done && len(g.Blocking(id)) > 0 {
		return ErrGoalBlocked
	}
	stepID := goal.Steps[idx].ID
	done := !goal.Steps[idx].Done
	flip := func(goal *api.Goal) {
		if j := stepIndex(*goal, stepID); j >= 0 {
			goal.Steps[j].Done = done
		}
	}
	if strings.HasPrefix(stepID, tempPrefix) || stepID == "" {
		return g.coord.Apply(id, flip, g.persist)
	}
	return g.coord.ApplyPart(id, flip, func(ctx context.Context, goal api.Goal) (api.Goal, error) {
		j := stepIndex(goal, stepID)
		if j < 0 {
			return api.Goal{}, nil
		}
		_, err := g.deps.API.UpdateGoalStep(ctx, id, goal.Steps[j])
		return api.Goal{}, err
	})
}

func stepIndex(goal api.Goal, stepID string) int {
	return slices.IndexFunc(goal.Steps, func(s api.Step) bool { return s.ID == stepID })
}

// AddStep appends a step under a temporary id and swaps in the server's id
// once it is created.
func (g *Goals) AddStep(id, text string, milestone bool) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: step text is required", ErrInvalidInput)
	}
	step := api.Step{ID: tempPrefix + uuid.NewString(), Text: text, IsMilestone: milestone}
	return g.coord.ApplyPart(id, func(goal *api.Goal) { goal.Steps = append(goal.Steps, step) },
		func(ctx context.Context, goal api.Goal) (api.Goal, error) {
			send := step
			send.ID = ""
			created, err := g.deps.API.AddGoalStep(ctx, id, send)
			if err != nil {
				return api.Goal{}, err
			}
			for i := range goal.Steps {
				if goal.Steps[i].ID == step.ID {
					goal.Steps[i] = created
				}
			}
			return goal, nil
		})
}

func (g *Goals) DeleteStep(id, stepID string) error {
	return g.coord.ApplyPart(id, func(goal *api.Goal) {
		steps := goal.Steps[:0]
		for _, s := range goal.Steps {
			if s.ID != stepID {
				steps = append(steps, s)
			}
		}
		goal.Steps = steps
	}, func(ctx context.Context, _ api.Goal) (api.Goal, error) {
		if strings.HasPrefix(stepID, tempPrefix) {
			return api.Goal{}, nil
		}
		return api.Goal{}, g.deps.API.DeleteGoalStep(ctx, id, stepID)
	})
}

func (g *Goals) Delete(id string) error {
	return g.coord.Remove(id, g.deps.API.DeleteGoal)
}

// Move reorders the visible list of one type, moving position from to to.
func (g *Goals) Move(typ api.GoalType, archived bool, from, to int) error {
	_, ids := derive.ApplyOrder(g.List(typ, archived), from, to)
	return g.coord.Reorder(ids, g.deps.API.ReorderGoals)
}

// UploadImage stores an image on the server and attaches its URL to id.
func (g *Goals) UploadImage(ctx context.Context, id, filename string, r io.Reader) error {
	url, err := g.deps.API.UploadGoalImage(ctx, filename, r)
	if err != nil {
		return fmt.Errorf("upload image: %w", err)
	}
	g.deps.Log.Debug("goal image uploaded", zap.String("goal", id), zap.String("url", url))
	return g.coord.Apply(id, func(goal *api.Goal) { goal.ImageURL = url }, g.persist)
}

func (g *Goals) Analytics(ctx context.Context) (api.GoalAnalytics, error) {
	return g.deps.API.GoalAnalytics(ctx)
}

func (g *Goals) Dirty(id string) bool { return g.coord.Dirty(id) }

func (g *Goals) Flush() { g.coord.Flush() }

func (g *Goals) Drain(ctx context.Context) error { return g.coord.Drain(ctx) }

func (g *Goals) Close() { g.coord.Close() }

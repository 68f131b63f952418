package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/reconcile"
)

// Tasks is the flat to-do list that routine entries and the focus timer
// link to.
type Tasks struct {
	deps  Deps
	coord *reconcile.Coordinator[api.Task]
}

func NewTasks(d Deps) *Tasks {
	d = d.withDefaults()
	return &Tasks{
		deps:  d,
		coord: reconcile.New(func(t api.Task) string { return t.ID }, options[api.Task](d, "task", nil)),
	}
}

func (t *Tasks) Load(ctx context.Context) error {
	list, err := t.deps.API.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	t.coord.Replace(list)
	return nil
}

func (t *Tasks) List() []api.Task { return t.coord.Items() }

// Open returns the tasks not yet completed.
func (t *Tasks) Open() []api.Task {
	var out []api.Task
	for _, task := range t.coord.Items() {
		if !task.IsCompleted {
			out = append(out, task)
		}
	}
	return out
}

func (t *Tasks) Get(id string) (api.Task, bool) { return t.coord.Get(id) }

func (t *Tasks) Create(ctx context.Context, title, priority string) (api.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return api.Task{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	created, err := t.deps.API.CreateTask(ctx, api.Task{Title: title, Priority: priority})
	if err != nil {
		return api.Task{}, fmt.Errorf("create task: %w", err)
	}
	t.coord.Insert(created)
	return created, nil
}

func (t *Tasks) Toggle(id string) error {
	return t.coord.ApplyPart(id, func(task *api.Task) { task.IsCompleted = !task.IsCompleted },
		func(ctx context.Context, task api.Task) (api.Task, error) {
			return api.Task{}, t.deps.API.SetTaskCompleted(ctx, task.ID, task.IsCompleted)
		})
}

func (t *Tasks) Rename(id, title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	return t.coord.Update(id, func(task *api.Task) { task.Title = title }, t.deps.API.UpdateTask)
}

func (t *Tasks) Delete(id string) error {
	return t.coord.Remove(id, t.deps.API.DeleteTask)
}

func (t *Tasks) Flush() { t.coord.Flush() }
func (t *Tasks) Close() { t.coord.Close() }

func (t *Tasks) Drain(ctx context.Context) error { return t.coord.Drain(ctx) }

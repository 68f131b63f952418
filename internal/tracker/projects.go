package tracker

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/derive"
	"github.com/sadopc/focusflow/internal/reconcile"
)

// Projects manages projects and their tasks. Notes are autosaved after the
// Deps.Debounce idle window; every other field is written at once.
type Projects struct {
	deps  Deps
	coord *reconcile.Coordinator[api.Project]
}

func NewProjects(d Deps) *Projects {
	d = d.withDefaults()
	return &Projects{
		deps:  d,
		coord: reconcile.New(func(p api.Project) string { return p.ID }, options(d, "project", api.Project.Clone)),
	}
}

func (p *Projects) Load(ctx context.Context) error {
	list, err := p.deps.API.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("load projects: %w", err)
	}
	p.coord.Replace(list)
	return nil
}

// List returns active or archived projects.
func (p *Projects) List(archived bool) []api.Project {
	var out []api.Project
	for _, pr := range p.coord.Items() {
		if pr.Archived == archived {
			out = append(out, pr)
		}
	}
	return out
}

// ByStatus groups active projects into board columns.
func (p *Projects) ByStatus() map[string][]api.Project {
	out := make(map[string][]api.Project, len(derive.ProjectStatuses))
	for _, pr := range p.List(false) {
		status := pr.Status
		if !slices.Contains(derive.ProjectStatuses, status) {
			status = derive.ProjectStatuses[0]
		}
		out[status] = append(out[status], pr)
	}
	return out
}

func (p *Projects) Get(id string) (api.Project, bool) { return p.coord.Get(id) }

func (p *Projects) persist(ctx context.Context, pr api.Project) (api.Project, error) {
	return api.Project{}, p.deps.API.UpdateProject(ctx, pr)
}

func (p *Projects) Create(ctx context.Context, pr api.Project) (api.Project, error) {
	pr.Name = strings.TrimSpace(pr.Name)
	if pr.Name == "" {
		return api.Project{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if pr.Status == "" {
		pr.Status = derive.ProjectStatuses[0]
	}
	if pr.Priority == "" {
		pr.Priority = "medium"
	}
	id, err := p.deps.API.CreateProject(ctx, pr)
	if err != nil {
		return api.Project{}, fmt.Errorf("create project: %w", err)
	}
	if id == "" {
		return api.Project{}, fmt.Errorf("create project: server returned no id")
	}
	pr.ID = id
	pr.CreatedAt = p.deps.Now().UTC().Format(time.RFC3339)
	p.coord.Insert(pr)
	return pr, nil
}

// Edit writes field changes immediately.
func (p *Projects) Edit(id string, mutate func(*api.Project)) error {
	return p.coord.Apply(id, mutate, p.persist)
}

// SetNotes autosaves once typing pauses.
func (p *Projects) SetNotes(id, notes string) error {
	return p.coord.Update(id, func(pr *api.Project) { pr.Notes = notes }, p.persist)
}

func (p *Projects) SetStatus(id, status string) error {
	if !slices.Contains(derive.ProjectStatuses, status) {
		return fmt.Errorf("%w: status %q", ErrInvalidInput, status)
	}
	return p.Edit(id, func(pr *api.Project) { pr.Status = status })
}

func (p *Projects) ToggleArchive(id string) error {
	return p.Edit(id, func(pr *api.Project) { pr.Archived = !pr.Archived })
}

func (p *Projects) Delete(id string) error {
	return p.coord.Remove(id, p.deps.API.DeleteProject)
}

func (p *Projects) AddTask(ctx context.Context, projectID, title string) (api.ProjectTask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return api.ProjectTask{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	task := api.ProjectTask{Title: title}
	id, err := p.deps.API.AddProjectTask(ctx, projectID, task)
	if err != nil {
		return api.ProjectTask{}, fmt.Errorf("add task: %w", err)
	}
	task.ID = id
	task.CreatedAt = p.deps.Now().UTC().Format(time.RFC3339)
	if err := p.coord.Confirm(projectID, func(pr *api.Project) { pr.Tasks = append(pr.Tasks, task) }); err != nil {
		return api.ProjectTask{}, err
	}
	return task, nil
}

func taskIndex(pr api.Project, taskID string) int {
	return slices.IndexFunc(pr.Tasks, func(t api.ProjectTask) bool { return t.ID == taskID })
}

func (p *Projects) ToggleTask(projectID, taskID string) error {
	pr, ok := p.coord.Get(projectID)
	if !ok {
		return fmt.Errorf("project %s: %w", projectID, reconcile.ErrNotFound)
	}
	i := taskIndex(pr, taskID)
	if i < 0 {
		return fmt.Errorf("task %s: %w", taskID, reconcile.ErrNotFound)
	}
	task := pr.Tasks[i]
	task.IsCompleted = !task.IsCompleted
	return p.coord.ApplyPart(projectID, func(pr *api.Project) {
		if j := taskIndex(*pr, taskID); j >= 0 {
			pr.Tasks[j] = task
		}
	}, func(ctx context.Context, _ api.Project) (api.Project, error) {
		return api.Project{}, p.deps.API.UpdateProjectTask(ctx, task)
	})
}

func (p *Projects) DeleteTask(projectID, taskID string) error {
	return p.coord.ApplyPart(projectID, func(pr *api.Project) {
		if j := taskIndex(*pr, taskID); j >= 0 {
			pr.Tasks = slices.Delete(pr.Tasks, j, j+1)
		}
	}, func(ctx context.Context, _ api.Project) (api.Project, error) {
		return api.Project{}, p.deps.API.DeleteProjectTask(ctx, taskID)
	})
}

func (p *Projects) Activity(ctx context.Context, id string) ([]api.ProjectActivity, error) {
	return p.deps.API.ProjectActivity(ctx, id)
}

// Badge is the due-date label for a project, empty when none applies.
func (p *Projects) Badge(pr api.Project) (string, bool) {
	return derive.DueBadge(pr.DueDate, pr.Status, p.deps.Now())
}

func (p *Projects) Flush() { p.coord.Flush() }
func (p *Projects) Close() { p.coord.Close() }

func (p *Projects) Drain(ctx context.Context) error { return p.coord.Drain(ctx) }

package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/derive"
	"github.com/sadopc/focusflow/internal/tracker"
)

var projectColors = []string{"#6366F1", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6", "#3498DB"}
var projectCategories = []string{"work", "personal", "learning", "freelance", "other"}

type projectsModel struct {
	ctx      context.Context
	projects *tracker.Projects
	now      func() time.Time

	width  int
	height int

	cursor       int
	taskCursor   int
	showArchived bool
	viewingTasks bool // true = viewing the selected project
	openID       string

	activity []api.ProjectActivity

	editingNotes bool
	notes        textarea.Model

	formActive bool
	form       *huh.Form
	formType   string // "project", "task", "edit_project"

	// Form field pointers (survive value copies)
	formName        *string
	formDescription *string
	formColor       *string
	formCategory    *string
	formPriority    *string
	formDue         *string

	editingID string
}

func newProjectsModel(ctx context.Context, projects *tracker.Projects) projectsModel {
	name, desc, color, cat, prio, due := "", "", projectColors[0], "", "medium", ""
	ta := textarea.New()
	ta.Placeholder = "Notes save automatically as you type"
	ta.ShowLineNumbers = false
	return projectsModel{
		ctx:             ctx,
		projects:        projects,
		now:             time.Now,
		notes:           ta,
		formName:        &name,
		formDescription: &desc,
		formColor:       &color,
		formCategory:    &cat,
		formPriority:    &prio,
		formDue:         &due,
	}
}

func (p *projectsModel) setSize(w, h int) {
	p.width = w
	p.height = h
	p.notes.SetWidth(max(w-10, 20))
	p.notes.SetHeight(max(h/3, 4))
}

type projectsLoadedMsg struct{ err error }

type activityMsg struct {
	projectID string
	items     []api.ProjectActivity
	err       error
}

func (p projectsModel) refresh() tea.Cmd {
	ctx, projects := p.ctx, p.projects
	return func() tea.Msg {
		return projectsLoadedMsg{err: projects.Load(ctx)}
	}
}

func (p projectsModel) refreshActivity(id string) tea.Cmd {
	ctx, projects := p.ctx, p.projects
	return func() tea.Msg {
		items, err := projects.Activity(ctx, id)
		return activityMsg{projectID: id, items: items, err: err}
	}
}

// ordered lists the visible projects in board order: by status column, then
// as the server returned them.
func (p projectsModel) ordered() []api.Project {
	if p.showArchived {
		return p.projects.List(true)
	}
	groups := p.projects.ByStatus()
	var out []api.Project
	for _, s := range derive.ProjectStatuses {
		out = append(out, groups[s]...)
	}
	return out
}

func (p projectsModel) selected() (api.Project, bool) {
	if p.viewingTasks {
		return p.projects.Get(p.openID)
	}
	list := p.ordered()
	if len(list) == 0 {
		return api.Project{}, false
	}
	return list[clamp(p.cursor, len(list))], true
}

func (p projectsModel) capturing() bool { return p.formActive || p.editingNotes }

func (p projectsModel) update(msg tea.Msg) (projectsModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case projectsLoadedMsg:
		if msg.err != nil {
			return p, failure("Could not load projects", msg.err)
		}
		p.cursor = clamp(p.cursor, len(p.ordered()))
		return p, nil

	case activityMsg:
		if msg.err == nil && msg.projectID == p.openID {
			p.activity = msg.items
		}
		return p, nil

	case tea.KeyMsg:
		if p.editingNotes {
			return p.updateNotes(msg)
		}
		if p.viewingTasks {
			return p.updateTaskView(msg)
		}
		return p.updateProjectList(msg)
	}
	return p, nil
}

func nextProjectStatus(s string) string {
	i := slices.Index(derive.ProjectStatuses, s)
	return derive.ProjectStatuses[(i+1)%len(derive.ProjectStatuses)]
}

func (p projectsModel) updateProjectList(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	list := p.ordered()
	projects := p.projects
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
		return p, nil
	case key.Matches(msg, keys.Down):
		if p.cursor < len(list)-1 {
			p.cursor++
		}
		return p, nil
	case key.Matches(msg, keys.New):
		return p.showNewProjectForm()
	case key.Matches(msg, keys.Archived):
		p.showArchived = !p.showArchived
		p.cursor = 0
		return p, nil
	}
	if len(list) == 0 {
		return p, nil
	}

	proj := list[clamp(p.cursor, len(list))]
	switch {
	case key.Matches(msg, keys.Enter):
		p.viewingTasks = true
		p.openID = proj.ID
		p.taskCursor = 0
		p.activity = nil
		return p, p.refreshActivity(proj.ID)
	case key.Matches(msg, keys.Edit):
		return p.showEditProjectForm(proj)
	case key.Matches(msg, keys.Toggle):
		next := nextProjectStatus(proj.Status)
		return p, optimistic(func() error { return projects.SetStatus(proj.ID, next) }, "Could not move project")
	case key.Matches(msg, keys.Archive):
		p.cursor = clamp(p.cursor, len(list)-1)
		return p, optimistic(func() error { return projects.ToggleArchive(proj.ID) }, "Could not archive project")
	case key.Matches(msg, keys.Delete):
		p.cursor = clamp(p.cursor, len(list)-1)
		return p, optimistic(func() error { return projects.Delete(proj.ID) }, "Could not delete project")
	}
	return p, nil
}

func (p projectsModel) updateTaskView(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	proj, ok := p.selected()
	if !ok {
		p.viewingTasks = false
		return p, nil
	}
	projects := p.projects
	switch {
	case key.Matches(msg, keys.Back):
		p.viewingTasks = false
		return p, nil
	case key.Matches(msg, keys.Up):
		if p.taskCursor > 0 {
			p.taskCursor--
		}
	case key.Matches(msg, keys.Down):
		if p.taskCursor < len(proj.Tasks)-1 {
			p.taskCursor++
		}
	case key.Matches(msg, keys.New):
		return p.showNewTaskForm()
	case key.Matches(msg, keys.Edit):
		p.editingNotes = true
		p.notes.SetValue(proj.Notes)
		return p, p.notes.Focus()
	case key.Matches(msg, keys.Toggle):
		if len(proj.Tasks) > 0 {
			task := proj.Tasks[clamp(p.taskCursor, len(proj.Tasks))]
			return p, optimistic(func() error { return projects.ToggleTask(proj.ID, task.ID) }, "Could not update task")
		}
	case key.Matches(msg, keys.Delete):
		if len(proj.Tasks) > 0 {
			task := proj.Tasks[clamp(p.taskCursor, len(proj.Tasks))]
			p.taskCursor = clamp(p.taskCursor, len(proj.Tasks)-1)
			return p, optimistic(func() error { return projects.DeleteTask(proj.ID, task.ID) }, "Could not delete task")
		}
	}
	return p, nil
}

// updateNotes feeds keys to the editor. Every change is handed to the
// controller, which writes once typing pauses.
func (p projectsModel) updateNotes(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	if msg.String() == "esc" {
		p.editingNotes = false
		p.notes.Blur()
		return p, nil
	}
	before := p.notes.Value()
	var cmd tea.Cmd
	p.notes, cmd = p.notes.Update(msg)
	if after := p.notes.Value(); after != before {
		if err := p.projects.SetNotes(p.openID, after); err != nil {
			return p, tea.Batch(cmd, failure("Could not save notes", err))
		}
	}
	return p, cmd
}

func (p projectsModel) projectForm() *huh.Form {
	colorOptions := make([]huh.Option[string], len(projectColors))
	for i, c := range projectColors {
		colorOptions[i] = huh.NewOption(lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render("●")+" "+c, c)
	}
	catOptions := make([]huh.Option[string], len(projectCategories))
	for i, c := range projectCategories {
		catOptions[i] = huh.NewOption(c, c)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Project Name").Value(p.formName).Validate(required("name")),
			huh.NewText().Title("Description").Value(p.formDescription),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(p.formColor),
			huh.NewSelect[string]().Title("Category").Options(catOptions...).Value(p.formCategory),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Priority").Options(priorityOptions()...).Value(p.formPriority),
			huh.NewInput().Title("Due date (YYYY-MM-DD)").Value(p.formDue).Validate(validDeadline),
		),
	).WithShowHelp(true).WithShowErrors(true)
}

func (p projectsModel) showNewProjectForm() (projectsModel, tea.Cmd) {
	*p.formName = ""
	*p.formDescription = ""
	*p.formColor = projectColors[0]
	*p.formCategory = "work"
	*p.formPriority = "medium"
	*p.formDue = ""
	p.formType = "project"

	p.form = p.projectForm()
	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) showEditProjectForm(proj api.Project) (projectsModel, tea.Cmd) {
	*p.formName = proj.Name
	*p.formDescription = proj.Description
	*p.formColor = proj.Color
	*p.formCategory = proj.Category
	*p.formPriority = proj.Priority
	*p.formDue = proj.DueDate
	if *p.formColor == "" {
		*p.formColor = projectColors[0]
	}
	if *p.formPriority == "" {
		*p.formPriority = "medium"
	}
	p.formType = "edit_project"
	p.editingID = proj.ID

	p.form = p.projectForm()
	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) showNewTaskForm() (projectsModel, tea.Cmd) {
	*p.formName = ""
	p.formType = "task"

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task Name").Value(p.formName).Validate(required("name")),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) updateForm(msg tea.Msg) (projectsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		p.formActive = false
		p.form = nil
		return p, nil
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}
	if p.form.State != huh.StateCompleted {
		return p, cmd
	}

	p.formActive = false
	projects := p.projects
	name, desc, color, cat, prio, due := *p.formName, *p.formDescription, *p.formColor, *p.formCategory, *p.formPriority, strings.TrimSpace(*p.formDue)
	switch p.formType {
	case "project":
		return p, attempt(p.ctx, func(ctx context.Context) error {
			_, err := projects.Create(ctx, api.Project{
				Name: name, Description: desc, Color: color, Category: cat, Priority: prio, DueDate: due,
			})
			return err
		}, "Project created", "Could not create project")

	case "edit_project":
		id := p.editingID
		return p, optimistic(func() error {
			return projects.Edit(id, func(pr *api.Project) {
				pr.Name = strings.TrimSpace(name)
				pr.Description = desc
				pr.Color = color
				pr.Category = cat
				pr.Priority = prio
				pr.DueDate = due
			})
		}, "Could not edit project")

	case "task":
		id := p.openID
		return p, attempt(p.ctx, func(ctx context.Context) error {
			_, err := projects.AddTask(ctx, id, name)
			return err
		}, "Task added", "Could not add task")
	}
	return p, nil
}

func (p projectsModel) view() string {
	if p.formActive && p.form != nil {
		title := titleStyle.Render("New Project")
		if p.formType == "edit_project" {
			title = titleStyle.Render("Edit Project")
		} else if p.formType == "task" {
			title = titleStyle.Render("New Task")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", p.form.View())
		return panelStyle.Width(p.width - 4).Render(content)
	}

	if p.viewingTasks {
		return p.renderTaskView()
	}
	return p.renderProjectList()
}

func (p projectsModel) renderProjectList() string {
	w := p.width - 4
	title := titleStyle.Render("Projects")
	if p.showArchived {
		title += warningStyle.Render("  archived")
	}

	list := p.ordered()
	if len(list) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No projects yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title, ""}
	header := mutedStyle.Render(fmt.Sprintf("  %-3s %-24s %-12s %-8s %-10s", "", "Name", "Category", "Priority", "Progress"))
	rows = append(rows, header)

	cursor := clamp(p.cursor, len(list))
	status := ""
	for i, proj := range list {
		if !p.showArchived && proj.Status != status {
			status = proj.Status
			rows = append(rows, accentStyle.Render(strings.ToUpper(status)))
		}
		style := normalItemStyle
		if i == cursor {
			style = selectedItemStyle
		}
		row := cursorPrefix(i == cursor) + dot(proj.Color) + " " +
			style.Render(fmt.Sprintf("%-24s %-12s %-8s", truncate(proj.Name, 24), proj.Category, proj.Priority))
		if len(proj.Tasks) > 0 {
			pct := derive.ProjectProgress(proj)
			row += " " + progressBar(pct, 8) + fmt.Sprintf(" %d%%", pct)
		}
		if label, overdue := p.projects.Badge(proj); label != "" {
			badge := warningStyle
			if overdue {
				badge = errorStyle
			}
			row += "  " + badge.Render(label)
		}
		rows = append(rows, row)
	}

	rows = append(rows, "", hint("n: new", "e: edit", "space: next status", "a: archive", "d: delete", "A: archived", "enter: open"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p projectsModel) renderTaskView() string {
	w := p.width - 4
	proj, ok := p.selected()
	if !ok {
		return panelStyle.Width(w).Render(mutedStyle.Render("Project no longer exists."))
	}
	title := titleStyle.Render(fmt.Sprintf("%s %s", dot(proj.Color), proj.Name)) + "  " + mutedStyle.Render(proj.Status)
	if proj.TotalTimeSeconds > 0 {
		title += mutedStyle.Render("  tracked " + derive.FormatDuration(proj.TotalTimeSeconds))
	}

	rows := []string{title}
	if proj.Description != "" {
		rows = append(rows, mutedStyle.Render(proj.Description))
	}
	rows = append(rows, "")

	if len(proj.Tasks) == 0 {
		rows = append(rows, mutedStyle.Render("No tasks. Press n to add one."))
	}
	cursor := clamp(p.taskCursor, len(proj.Tasks))
	for i, task := range proj.Tasks {
		style := normalItemStyle
		if i == cursor && !p.editingNotes {
			style = selectedItemStyle
		}
		line := cursorPrefix(i == cursor && !p.editingNotes) + checkbox(task.IsCompleted) + " " + style.Render(task.Title)
		if task.TimeSeconds > 0 {
			line += mutedStyle.Render(" " + derive.FormatDuration(task.TimeSeconds))
		}
		rows = append(rows, line)
	}

	rows = append(rows, "", titleStyle.Render("Notes"))
	if p.editingNotes {
		rows = append(rows, p.notes.View(), mutedStyle.Render("saved as you type  esc: done"))
	} else if proj.Notes != "" {
		rows = append(rows, proj.Notes)
	} else {
		rows = append(rows, mutedStyle.Render("No notes. Press e to write some."))
	}

	if len(p.activity) > 0 {
		rows = append(rows, "", titleStyle.Render("Activity"))
		now := p.now()
		for i, a := range p.activity {
			if i == 5 {
				break
			}
			when := a.CreatedAt
			if ts, err := time.Parse(time.RFC3339, a.CreatedAt); err == nil {
				when = derive.RelativeTime(ts, now)
			}
			rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-10s %s", when, a.Message)))
		}
	}

	rows = append(rows, "", hint("n: new task", "space: done", "d: delete", "e: notes", "esc: back"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

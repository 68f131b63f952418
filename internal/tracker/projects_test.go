package tracker

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/focusflow/internal/api"
)

func newProjects(t *testing.T) (*Projects, *backend) {
	t.Helper()
	b, deps, _ := newBackend(t)
	b.handle("GET /api/projects", ok([]api.Project{
		{ID: "p1", Name: "Site", Status: "in-progress", DueDate: "2024-03-17",
			Tasks: []api.ProjectTask{{ID: "pt1", Title: "Header"}, {ID: "pt2", Title: "Footer", IsCompleted: true}}},
		{ID: "p2", Name: "Old", Status: "completed", Archived: true},
		{ID: "p3", Name: "Odd", Status: "someday"},
	}))
	b.handle("PUT /api/projects/{id}", ok(nil))
	p := NewProjects(deps)
	t.Cleanup(p.Close)
	require.NoError(t, p.Load(t.Context()))
	return p, b
}

func TestProjectBoard(t *testing.T) {
	p, _ := newProjects(t)

	assert.Len(t, p.List(false), 2)
	assert.Len(t, p.List(true), 1)

	board := p.ByStatus()
	assert.Len(t, board["in-progress"], 1)
	assert.Len(t, board["backlog"], 1, "unknown statuses fall back to the first column")

	site, _ := p.Get("p1")
	label, overdue := p.Badge(site)
	assert.Equal(t, "2d left", label)
	assert.False(t, overdue)
}

func TestProjectNotesAutosaveOnce(t *testing.T) {
	p, b := newProjects(t)

	for _, n := range []string{"a", "ab", "abc"} {
		require.NoError(t, p.SetNotes("p1", n))
	}
	assert.Eventually(t, func() bool { return b.count(http.MethodPut, "/api/projects/p1") == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	calls := b.calls(http.MethodPut, "/api/projects/p1")
	require.Len(t, calls, 1)
	sent := decode[api.Project](t, calls[0].Body)
	assert.Equal(t, "abc", sent.Notes)
	assert.Empty(t, sent.Tasks)
}

func TestProjectStatusValidation(t *testing.T) {
	p, b := newProjects(t)

	assert.ErrorIs(t, p.SetStatus("p1", "done-ish"), ErrInvalidInput)
	require.NoError(t, p.SetStatus("p1", "review"))
	assert.Equal(t, 1, b.count(http.MethodPut, "/api/projects/p1"))
}

func TestProjectTasks(t *testing.T) {
	p, b := newProjects(t)
	b.handle("POST /api/projects/{id}/tasks", ok(map[string]string{"id": "pt3"}))
	b.handle("PUT /api/projects/tasks/{id}", ok(nil))
	b.handle("DELETE /api/projects/tasks/{id}", fail(http.StatusInternalServerError))

	task, err := p.AddTask(t.Context(), "p1", " Nav ")
	require.NoError(t, err)
	assert.Equal(t, "pt3", task.ID)
	assert.Equal(t, "Nav", task.Title)

	require.NoError(t, p.ToggleTask("p1", "pt1"))
	calls := b.calls(http.MethodPut, "/api/projects/tasks/pt1")
	require.Len(t, calls, 1)
	assert.True(t, decode[api.ProjectTask](t, calls[0].Body).IsCompleted)

	require.Error(t, p.DeleteTask("p1", "pt2"))
	site, _ := p.Get("p1")
	require.Len(t, site.Tasks, 3)
	assert.Equal(t, "pt2", site.Tasks[1].ID)
	assert.True(t, site.Tasks[0].IsCompleted)
}

func TestProjectTaskToggleSendsPendingNotes(t *testing.T) {
	p, b := newProjects(t)
	b.handle("PUT /api/projects/tasks/{id}", ok(nil))

	require.NoError(t, p.SetNotes("p1", "draft"))
	require.NoError(t, p.ToggleTask("p1", "pt1"))

	calls := b.calls(http.MethodPut, "/api/projects/p1")
	require.Len(t, calls, 1)
	assert.Equal(t, "draft", decode[api.Project](t, calls[0].Body).Notes)
	assert.Equal(t, 1, b.count(http.MethodPut, "/api/projects/tasks/pt1"))

	site, _ := p.Get("p1")
	assert.Equal(t, "draft", site.Notes)
	assert.True(t, site.Tasks[0].IsCompleted)
	assert.False(t, p.coord.Dirty("p1"))
}

func TestCreateProject(t *testing.T) {
	p, b := newProjects(t)
	b.handle("POST /api/projects", ok(map[string]string{"id": "p4"}))

	created, err := p.Create(t.Context(), api.Project{Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, "p4", created.ID)
	assert.Equal(t, "backlog", created.Status)
	assert.Equal(t, "medium", created.Priority)
	assert.Len(t, p.List(false), 3)

	_, err = p.Create(t.Context(), api.Project{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
